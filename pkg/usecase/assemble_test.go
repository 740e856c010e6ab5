package usecase

import (
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/model/config"
	"github.com/chatling/chatling/pkg/domain/types"
)

func TestRenderSystemPrompt(t *testing.T) {
	persona := config.DefaultPersona()
	prompt, err := renderSystemPrompt(persona)
	gt.NoError(t, err).Required()
	gt.S(t, prompt).Contains(persona.Name)
	gt.S(t, prompt).Contains(persona.Tagline)
}

func TestAssemble(t *testing.T) {
	msg := func(seq int64, text string) *model.Message {
		return &model.Message{
			UserID: "u1",
			Seq:    seq,
			Role:   types.RoleUser,
			Text:   text,
		}
	}

	t.Run("orders system, summaries, tail, incoming", func(t *testing.T) {
		a := &assembler{budget: 1000}
		summaries := []*model.Summary{
			model.NewSummary("u1", "old facts", 0, 9),
			model.NewSummary("u1", "newer facts", 10, 19),
		}
		tail := []*model.Message{msg(20, "first raw"), msg(21, "second raw")}

		prompt, err := a.Assemble("system text", summaries, tail, "incoming text")
		gt.NoError(t, err).Required()
		gt.Array(t, prompt).Length(6)

		gt.Value(t, prompt[0].Role).Equal(types.RoleSystem)
		gt.Value(t, prompt[0].Text).Equal("system text")
		gt.S(t, prompt[1].Text).Contains("old facts")
		gt.S(t, prompt[1].Text).Contains("0-9")
		gt.S(t, prompt[2].Text).Contains("newer facts")
		gt.Value(t, prompt[3].Text).Equal("first raw")
		gt.Value(t, prompt[4].Text).Equal("second raw")
		gt.Value(t, prompt[5].Role).Equal(types.RoleUser)
		gt.Value(t, prompt[5].Text).Equal("incoming text")
	})

	t.Run("drops oldest tail messages first under budget pressure", func(t *testing.T) {
		// system (6) + incoming (8) = 14 fixed; room for 10 more runes
		a := &assembler{budget: 24}
		tail := []*model.Message{
			msg(0, strings.Repeat("a", 10)),
			msg(1, strings.Repeat("b", 5)),
			msg(2, strings.Repeat("c", 5)),
		}

		prompt, err := a.Assemble("system", nil, tail, "incoming")
		gt.NoError(t, err).Required()
		gt.Array(t, prompt).Length(4)
		gt.Value(t, prompt[1].Text).Equal(strings.Repeat("b", 5))
		gt.Value(t, prompt[2].Text).Equal(strings.Repeat("c", 5))
		gt.Value(t, prompt[3].Text).Equal("incoming")
		gt.Number(t, prompt.Size()).LessOrEqual(24)
	})

	t.Run("keeps whole tail when it fits exactly", func(t *testing.T) {
		a := &assembler{budget: 20}
		tail := []*model.Message{msg(0, "aaa"), msg(1, "bbb")}

		prompt, err := a.Assemble("system", nil, tail, "incoming")
		gt.NoError(t, err).Required()
		gt.Array(t, prompt).Length(4)
		gt.Value(t, prompt.Size()).Equal(20)
	})

	t.Run("summaries and incoming are never dropped", func(t *testing.T) {
		a := &assembler{budget: 100}
		summaries := []*model.Summary{
			model.NewSummary("u1", strings.Repeat("s", 30), 0, 9),
		}
		tail := []*model.Message{msg(10, strings.Repeat("x", 500))}

		prompt, err := a.Assemble("sys", summaries, tail, "incoming")
		gt.NoError(t, err).Required()
		// The whole tail fell off; fixed parts survive
		gt.Array(t, prompt).Length(3)
		gt.S(t, prompt[1].Text).Contains(strings.Repeat("s", 30))
		gt.Value(t, prompt[2].Text).Equal("incoming")
	})

	t.Run("fails when fixed parts alone exceed budget", func(t *testing.T) {
		a := &assembler{budget: 10}

		_, err := a.Assemble(strings.Repeat("s", 50), nil, nil, "incoming")
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagContextTooLarge)).True()
	})
}
