package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tradeosbc/trade-dispatch-platform/internal/clients"
	"github.com/tradeosbc/trade-dispatch-platform/internal/industry"
	"github.com/tradeosbc/trade-dispatch-platform/internal/leads"
	"github.com/tradeosbc/trade-dispatch-platform/pkg/logging"
)

// defaultPauseDuration is how long a manual takeover silences the AI when no
// explicit duration is supplied.
const defaultPauseDuration = time.Hour

// AdminHandler serves the operator endpoints used by the dashboard.
type AdminHandler struct {
	clients    clients.Repository
	leads      leads.Repository
	industries industry.Repository
	logger     *logging.Logger
}

func NewAdminHandler(clientRepo clients.Repository, leadRepo leads.Repository, industryRepo industry.Repository, logger *logging.Logger) *AdminHandler {
	if clientRepo == nil || leadRepo == nil || industryRepo == nil {
		panic("handlers: admin repositories required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{
		clients:    clientRepo,
		leads:      leadRepo,
		industries: industryRepo,
		logger:     logger,
	}
}

// AcceptTerms stamps the client's terms agreement time.
func (h *AdminHandler) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if err := h.clients.AcceptTerms(r.Context(), clientID, time.Now().UTC()); err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		h.logger.Error("accept terms failed", "client_id", clientID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// PauseLead suspends AI replies for a lead so a human can take over the
// thread. An optional JSON body can extend the default one hour pause.
func (h *AdminHandler) PauseLead(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	duration := defaultPauseDuration
	var body struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Minutes > 0 {
		duration = time.Duration(body.Minutes) * time.Minute
	}

	until := time.Now().UTC().Add(duration)
	if err := h.leads.Pause(r.Context(), leadID, until); err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			http.Error(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("pause lead failed", "lead_id", leadID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "paused",
		"paused_until": until.Format(time.RFC3339),
	})
}

// ListLeads returns a client's leads, newest first.
func (h *AdminHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	out, err := h.leads.ListByClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("list leads failed", "client_id", clientID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	type leadView struct {
		ID                  string     `json:"id"`
		CustomerPhone       string     `json:"customer_phone"`
		ConversationHistory string     `json:"conversation_history"`
		AIPausedUntil       *time.Time `json:"ai_paused_until,omitempty"`
		Status              string     `json:"status"`
		CreatedAt           time.Time  `json:"created_at"`
	}
	views := make([]leadView, 0, len(out))
	for _, l := range out {
		views = append(views, leadView{
			ID:                  l.ID,
			CustomerPhone:       l.CustomerPhone,
			ConversationHistory: l.ConversationHistory,
			AIPausedUntil:       l.AIPausedUntil,
			Status:              l.Status,
			CreatedAt:           l.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": views})
}

// UpdateIndustryPrompt replaces the system prompt template for a trade.
func (h *AdminHandler) UpdateIndustryPrompt(w http.ResponseWriter, r *http.Request) {
	industryType := chi.URLParam(r, "industryType")

	var body struct {
		SystemPromptTemplate string `json:"system_prompt_template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.SystemPromptTemplate) == "" {
		http.Error(w, "system_prompt_template required", http.StatusBadRequest)
		return
	}

	if err := h.industries.UpdatePrompt(r.Context(), industryType, body.SystemPromptTemplate); err != nil {
		if errors.Is(err, industry.ErrConfigNotFound) {
			http.Error(w, "industry not found", http.StatusNotFound)
			return
		}
		h.logger.Error("update industry prompt failed", "industry_type", industryType, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
