package config

import "github.com/m-mizutani/goerr/v2"

// Persona describes the agent's identity and the capabilities it may
// explain. It only shapes the system instruction block; it carries no
// behavior of its own.
type Persona struct {
	Name         string
	Tagline      string
	Style        []string
	Capabilities []string
}

// Validate checks if the Persona is valid
func (p *Persona) Validate() error {
	if p.Name == "" {
		return goerr.New("persona name is required")
	}
	if len(p.Capabilities) == 0 {
		return goerr.New("persona requires at least one capability",
			goerr.V("name", p.Name))
	}
	return nil
}

// DefaultPersona returns the built-in media helper persona used when no
// persona file is configured.
func DefaultPersona() *Persona {
	return &Persona{
		Name:    "Chatling",
		Tagline: "a friendly, witty assistant that helps users with media and stickers in their chat app",
		Style: []string{
			"Be conversational and use casual chat-style language",
			"Use emojis naturally, not excessively",
			"Keep responses under 200 words",
			"Always respond in the same language as the user's message",
		},
		Capabilities: []string{
			"Explaining how to create chat stickers from images",
			"Explaining how to download media from Facebook, Instagram, TikTok, YouTube and Twitter",
			"Answering questions in the user's own language",
		},
	}
}
