package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

func TestPromptSize(t *testing.T) {
	p := model.Prompt{
		{Role: types.RoleSystem, Text: "abc"},
		{Role: types.RoleUser, Text: "日本語"},
	}
	// Runes, not bytes
	gt.Value(t, p.Size()).Equal(6)

	gt.Value(t, model.Prompt{}.Size()).Equal(0)
}

func TestPromptTranscript(t *testing.T) {
	p := model.Prompt{
		{Role: types.RoleSystem, Text: "be helpful"},
		{Role: types.RoleUser, Text: "hi"},
		{Role: types.RoleAgent, Text: "hello"},
	}
	gt.Value(t, p.Transcript()).Equal("[system] be helpful\n\n[user] hi\n\n[agent] hello")
}
