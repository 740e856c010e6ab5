package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/types"
	"github.com/chatling/chatling/pkg/usecase"
	"github.com/chatling/chatling/pkg/utils/errutil"
	"github.com/chatling/chatling/pkg/utils/logging"
	"github.com/chatling/chatling/pkg/utils/safe"
)

// webhookRequest is the inbound payload delivered by the messaging
// platform bridge
type webhookRequest struct {
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
}

type webhookResponse struct {
	Response string `json:"response"`
}

// WebhookHandler handles inbound message webhooks
type WebhookHandler struct {
	conversation    *usecase.ConversationUseCase
	fallbackMessage string
}

func newWebhookHandler(conversation *usecase.ConversationUseCase, fallbackMessage string) *WebhookHandler {
	return &WebhookHandler{
		conversation:    conversation,
		fallbackMessage: fallbackMessage,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer safe.Close(ctx, r.Body)

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode webhook payload",
			goerr.T(types.ErrTagInvalidRequest)), http.StatusBadRequest)
		return
	}

	reply, err := h.conversation.ProcessMessage(ctx, types.UserID(req.User.ID), req.Message.Text)
	if err != nil {
		h.respondError(ctx, w, err)
		return
	}

	writeResponse(ctx, w, http.StatusOK, reply)
}

func (h *WebhookHandler) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case goerr.HasTag(err, types.ErrTagInvalidRequest):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)

	case goerr.HasTag(err, types.ErrTagUpstream), goerr.HasTag(err, types.ErrTagContextTooLarge):
		// The platform expects a conversational response, so a
		// configured fallback is delivered with 200
		if h.fallbackMessage != "" {
			errutil.Handle(ctx, err, "model unavailable, sending fallback reply")
			writeResponse(ctx, w, http.StatusOK, h.fallbackMessage)
			return
		}
		errutil.HandleHTTP(ctx, w, err, http.StatusServiceUnavailable)

	case goerr.HasTag(err, types.ErrTagStorage):
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)

	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
	}
}

func writeResponse(ctx context.Context, w http.ResponseWriter, status int, reply string) {
	data, err := json.Marshal(webhookResponse{Response: reply})
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal webhook response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("failed to write webhook response", "error", err)
	}
}
