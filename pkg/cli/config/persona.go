package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	domainConfig "github.com/chatling/chatling/pkg/domain/model/config"
)

// Persona holds the CLI flag for the persona configuration file
type Persona struct {
	path string
}

// personaFile is the TOML shape of a persona configuration file
type personaFile struct {
	Name         string   `toml:"name"`
	Tagline      string   `toml:"tagline"`
	Style        []string `toml:"style"`
	Capabilities []string `toml:"capabilities"`
}

// Flags returns CLI flags for persona configuration
func (p *Persona) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "persona-config",
			Usage:       "Path to a TOML persona file (defaults to the built-in persona)",
			Sources:     cli.EnvVars("CHATLING_PERSONA_CONFIG"),
			Destination: &p.path,
		},
	}
}

// Configure loads and validates the persona. Without a configured path
// the built-in persona is returned.
func (p *Persona) Configure() (*domainConfig.Persona, error) {
	if p.path == "" {
		return domainConfig.DefaultPersona(), nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read persona file", goerr.V("path", p.path))
	}

	var file personaFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse persona TOML", goerr.V("path", p.path))
	}

	persona := &domainConfig.Persona{
		Name:         file.Name,
		Tagline:      file.Tagline,
		Style:        file.Style,
		Capabilities: file.Capabilities,
	}
	if err := persona.Validate(); err != nil {
		return nil, goerr.Wrap(err, "persona validation failed", goerr.V("path", p.path))
	}

	return persona, nil
}
