package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	openai "github.com/sashabaranov/go-openai"

	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

func TestNewOpenRouter(t *testing.T) {
	t.Run("requires endpoint and key", func(t *testing.T) {
		_, err := NewOpenRouter("", "sk-test")
		gt.Error(t, err)
		_, err = NewOpenRouter("https://openrouter.ai/api/v1", "")
		gt.Error(t, err)
	})

	t.Run("options override defaults", func(t *testing.T) {
		c, err := NewOpenRouter("https://openrouter.ai/api/v1", "sk-test",
			WithModel("qwen/qwen-2.5-72b-instruct"),
			WithTemperature(0.2),
		)
		gt.NoError(t, err).Required()
		gt.Value(t, c.model).Equal("qwen/qwen-2.5-72b-instruct")
		gt.Value(t, c.temperature).Equal(float32(0.2))
	})
}

func TestChatRole(t *testing.T) {
	gt.Value(t, chatRole(types.RoleSystem)).Equal(openai.ChatMessageRoleSystem)
	gt.Value(t, chatRole(types.RoleAgent)).Equal(openai.ChatMessageRoleAssistant)
	gt.Value(t, chatRole(types.RoleUser)).Equal(openai.ChatMessageRoleUser)
}

func TestOpenRouterComplete(t *testing.T) {
	var captured openai.ChatCompletionRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "the reply"}},
			},
		})
	}))
	defer ts.Close()

	c, err := NewOpenRouter(ts.URL, "sk-test", WithModel("test-model"))
	gt.NoError(t, err).Required()

	prompt := model.Prompt{
		{Role: types.RoleSystem, Text: "persona"},
		{Role: types.RoleUser, Text: "question"},
		{Role: types.RoleAgent, Text: "earlier answer"},
		{Role: types.RoleUser, Text: "follow-up"},
	}

	reply, err := c.Complete(context.Background(), prompt)
	gt.NoError(t, err).Required()
	gt.Value(t, reply).Equal("the reply")

	gt.Value(t, captured.Model).Equal("test-model")
	gt.Array(t, captured.Messages).Length(4)
	gt.Value(t, captured.Messages[0].Role).Equal(openai.ChatMessageRoleSystem)
	gt.Value(t, captured.Messages[2].Role).Equal(openai.ChatMessageRoleAssistant)
	gt.Value(t, captured.Messages[3].Content).Equal("follow-up")
}

func TestOpenRouterCompleteUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c, err := NewOpenRouter(ts.URL, "sk-test")
	gt.NoError(t, err).Required()

	_, err = c.Complete(context.Background(), model.Prompt{{Role: types.RoleUser, Text: "hi"}})
	gt.Error(t, err)
}
