package model

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chatling/chatling/pkg/domain/types"
)

// Fragment is one (role, text) pair of an assembled prompt
type Fragment struct {
	Role types.Role
	Text string
}

// Prompt is the full ordered context handed to the language model for
// one turn: system instructions, condensed history, raw tail, and the
// incoming message last.
type Prompt []Fragment

// Size returns the total text length of the prompt in runes.
// The context budget is enforced against this value.
func (p Prompt) Size() int {
	var n int
	for _, f := range p {
		n += utf8.RuneCountInString(f.Text)
	}
	return n
}

// Transcript flattens the prompt into a single role-labeled text block
// for backends that accept one text input per request.
func (p Prompt) Transcript() string {
	var sb strings.Builder
	for i, f := range p {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s] %s", f.Role, f.Text)
	}
	return sb.String()
}
