package usecase

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/model/config"
	"github.com/chatling/chatling/pkg/domain/types"
)

//go:embed prompt/system.md
var systemPromptTmpl string

var systemPrompt = template.Must(template.New("system").Parse(systemPromptTmpl))

func renderSystemPrompt(persona *config.Persona) (string, error) {
	var buf bytes.Buffer
	if err := systemPrompt.Execute(&buf, persona); err != nil {
		return "", goerr.Wrap(err, "failed to render system prompt template")
	}
	return buf.String(), nil
}

// assembler builds the bounded prompt for one turn: system block,
// condensed history, raw tail, incoming message last.
type assembler struct {
	budget int
}

// Assemble enforces the context budget by dropping the oldest raw tail
// messages first. Summaries and the incoming message are never dropped;
// if the fixed parts alone exceed the budget the turn fails with
// ErrContextTooLarge.
func (a *assembler) Assemble(system string, summaries []*model.Summary, tail []*model.Message, incoming string) (model.Prompt, error) {
	fixed := make(model.Prompt, 0, len(summaries)+1)
	fixed = append(fixed, model.Fragment{Role: types.RoleSystem, Text: system})
	for _, s := range summaries {
		fixed = append(fixed, model.Fragment{
			Role: types.RoleSystem,
			Text: fmt.Sprintf("Condensed conversation history (messages %d-%d): %s",
				s.RangeStart, s.RangeEnd, s.Text),
		})
	}

	last := model.Fragment{Role: types.RoleUser, Text: incoming}

	used := fixed.Size() + utf8.RuneCountInString(last.Text)
	if used > a.budget {
		return nil, goerr.Wrap(ErrContextTooLarge, "summaries and incoming message alone exceed budget",
			goerr.V("budget", a.budget),
			goerr.V("size", used),
			goerr.V("summaries", len(summaries)),
		)
	}

	// Walk the tail newest-first so the oldest messages fall off when
	// the budget runs out
	keepFrom := len(tail)
	for i := len(tail) - 1; i >= 0; i-- {
		size := utf8.RuneCountInString(tail[i].Text)
		if used+size > a.budget {
			break
		}
		used += size
		keepFrom = i
	}

	prompt := make(model.Prompt, 0, len(fixed)+len(tail)-keepFrom+1)
	prompt = append(prompt, fixed...)
	for _, m := range tail[keepFrom:] {
		prompt = append(prompt, model.Fragment{Role: m.Role, Text: m.Text})
	}
	prompt = append(prompt, last)

	return prompt, nil
}
