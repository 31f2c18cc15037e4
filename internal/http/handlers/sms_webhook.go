package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tradeosbc/trade-dispatch-platform/internal/clients"
	"github.com/tradeosbc/trade-dispatch-platform/internal/dispatch"
	"github.com/tradeosbc/trade-dispatch-platform/internal/messaging"
	"github.com/tradeosbc/trade-dispatch-platform/pkg/logging"
)

type messagePipeline interface {
	Process(ctx context.Context, msg dispatch.InboundMessage) (dispatch.Outcome, error)
}

// SMSWebhookHandler receives Twilio SMS webhooks and runs the dispatch
// pipeline for each delivery.
type SMSWebhookHandler struct {
	pipeline        messagePipeline
	logger          *logging.Logger
	authToken       string
	validateSigning bool
}

type SMSWebhookConfig struct {
	Pipeline messagePipeline
	Logger   *logging.Logger
	// TwilioAuthToken enables request signature validation when set.
	TwilioAuthToken string
}

func NewSMSWebhookHandler(cfg SMSWebhookConfig) *SMSWebhookHandler {
	if cfg.Pipeline == nil {
		panic("handlers: dispatch pipeline required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &SMSWebhookHandler{
		pipeline:        cfg.Pipeline,
		logger:          cfg.Logger,
		authToken:       cfg.TwilioAuthToken,
		validateSigning: cfg.TwilioAuthToken != "",
	}
}

// Handle processes one inbound SMS webhook. The response body is a short
// operational outcome token, never user-facing text.
func (h *SMSWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.validateSigning && !messaging.ValidateTwilioSignature(r, h.authToken, messaging.BuildAbsoluteURL(r)) {
		h.logger.Warn("rejected webhook with bad signature", "remote_ip", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	sms, err := messaging.ParseInboundSMS(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if sms.MessageSid == "" || sms.From == "" || sms.To == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	outcome, err := h.pipeline.Process(r.Context(), dispatch.InboundMessage{
		MessageSid: sms.MessageSid,
		From:       sms.From,
		To:         sms.To,
		Body:       sms.Body,
		NumMedia:   sms.NumMedia,
		MediaURL:   sms.MediaURL,
	})
	if err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			h.logger.Warn("webhook for unknown routing number", "to", sms.To)
			http.Error(w, "unknown client", http.StatusNotFound)
			return
		}
		h.logger.Error("pipeline failed", "message_sid", sms.MessageSid, "error", err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, string(outcome))
}

// HealthCheck reports liveness with no side effects.
func (h *SMSWebhookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"alive"}`)
}
