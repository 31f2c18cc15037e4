package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradeosbc/trade-dispatch-platform/internal/clients"
	"github.com/tradeosbc/trade-dispatch-platform/internal/industry"
	"github.com/tradeosbc/trade-dispatch-platform/internal/leads"
	"github.com/tradeosbc/trade-dispatch-platform/internal/observability/metrics"
)

// ErrAIResponder marks a model invocation failure. It is fatal for the
// request: no reply is sent and no usage is logged.
var ErrAIResponder = errors.New("dispatch: ai responder failed")

// InboundMessage is the transport-independent view of one inbound SMS.
type InboundMessage struct {
	MessageSid string
	From       string
	To         string
	Body       string
	NumMedia   int
	MediaURL   string
}

// ClientDirectory resolves the receiving business for a routing number.
type ClientDirectory interface {
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*clients.Client, error)
}

// LeadStore is the slice of lead storage the pipeline touches.
type LeadStore interface {
	GetByCustomerPhone(ctx context.Context, clientID, phone string) (*leads.Lead, error)
	GetOrCreateByPhone(ctx context.Context, clientID, phone string) (*leads.Lead, error)
	AppendHistory(ctx context.Context, upd leads.HistoryUpdate) (bool, error)
}

// LeadLocker serializes pipeline runs per customer phone number.
type LeadLocker interface {
	Acquire(ctx context.Context, clientID, phone string) (func(), error)
}

// IndustryConfigs resolves the persona and safety policy for a trade.
type IndustryConfigs interface {
	GetByType(ctx context.Context, industryType string) (*industry.Config, error)
}

// ComplianceLogger appends safety-stop audit rows.
type ComplianceLogger interface {
	LogSafetyStop(ctx context.Context, clientID, customerPhone, messageContent string) error
}

// UsageRecorder appends token usage rows.
type UsageRecorder interface {
	Record(ctx context.Context, clientID string, tokensUsed int) error
}

// MediaArchiver copies transient MMS media to durable storage.
type MediaArchiver interface {
	Archive(ctx context.Context, mediaURL, fromPhone string) string
}

// ProcessedStore tracks handled message identifiers.
type ProcessedStore interface {
	AlreadyProcessed(ctx context.Context, messageSid string) (bool, error)
	MarkProcessed(ctx context.Context, messageSid string) error
}

// ServiceOptions carries the model and bookkeeping knobs for the pipeline.
type ServiceOptions struct {
	Model         string
	MaxTokens     int32
	Temperature   float32
	LLMTimeout    time.Duration
	HistoryMaxLen int
}

// Service runs the inbound SMS pipeline: ordered gates, AI invocation, and
// durable logging. One call to Process handles one webhook delivery.
type Service struct {
	clients    ClientDirectory
	leads      LeadStore
	locker     LeadLocker
	industries IndustryConfigs
	compliance ComplianceLogger
	usage      UsageRecorder
	archiver   MediaArchiver
	processed  ProcessedStore
	llm        LLMClient
	messenger  ReplyMessenger
	metrics    *metrics.MessagingMetrics
	logger     *slog.Logger
	tracer     trace.Tracer
	opts       ServiceOptions
	now        func() time.Time
}

// NewService wires the pipeline. All collaborators except metrics are
// required.
func NewService(
	clientDir ClientDirectory,
	leadStore LeadStore,
	locker LeadLocker,
	industries IndustryConfigs,
	complianceLog ComplianceLogger,
	usageRec UsageRecorder,
	archiver MediaArchiver,
	processed ProcessedStore,
	llm LLMClient,
	messenger ReplyMessenger,
	m *metrics.MessagingMetrics,
	logger *slog.Logger,
	opts ServiceOptions,
) *Service {
	if clientDir == nil || leadStore == nil || locker == nil || industries == nil ||
		complianceLog == nil || usageRec == nil || archiver == nil || processed == nil ||
		llm == nil || messenger == nil {
		panic("dispatch: all pipeline collaborators are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 300
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 20 * time.Second
	}
	if opts.HistoryMaxLen <= 0 {
		opts.HistoryMaxLen = 5000
	}
	return &Service{
		clients:    clientDir,
		leads:      leadStore,
		locker:     locker,
		industries: industries,
		compliance: complianceLog,
		usage:      usageRec,
		archiver:   archiver,
		processed:  processed,
		llm:        llm,
		messenger:  messenger,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("tradeos.internal.dispatch.service"),
		opts:       opts,
		now:        time.Now,
	}
}

// Process runs the full gate chain for one inbound message and returns the
// terminal outcome. A clients.ErrClientNotFound or ErrAIResponder error means
// the caller should report failure to the webhook platform; every other path
// ends in a terminal outcome.
func (s *Service) Process(ctx context.Context, msg InboundMessage) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.process")
	defer span.End()
	started := s.now()

	outcome, err := s.process(ctx, msg)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveInbound("error")
		return outcome, err
	}
	s.metrics.ObserveInbound(string(outcome))
	s.metrics.ObserveWebhookLatency(string(outcome), s.now().Sub(started).Seconds())
	return outcome, nil
}

func (s *Service) process(ctx context.Context, msg InboundMessage) (Outcome, error) {
	// Jurisdiction and content gates run before any record lookup. A block
	// here touches no storage and leaves no trace beyond a log line.
	if outcome, blocked := CheckGeography(msg.From); blocked {
		s.logger.Info("blocked by geography gate", "from", msg.From)
		return outcome, nil
	}
	if outcome, blocked := CheckContent(msg.Body); blocked {
		s.logger.Info("blocked by content gate", "from", msg.From)
		return outcome, nil
	}

	// A webhook retry for a message that already completed must not
	// double-send or double-bill.
	seen, err := s.processed.AlreadyProcessed(ctx, msg.MessageSid)
	if err != nil {
		s.logger.Error("idempotency check failed, continuing", "message_sid", msg.MessageSid, "error", err)
	} else if seen {
		s.logger.Info("duplicate webhook delivery skipped", "message_sid", msg.MessageSid)
		return OutcomeOK, nil
	}

	client, err := s.clients.GetByPhoneNumber(ctx, msg.To)
	if err != nil {
		return "", fmt.Errorf("dispatch: resolve client for %s: %w", msg.To, err)
	}

	// Serialize per customer so two near-simultaneous messages cannot race
	// on the same lead's history.
	release, err := s.locker.Acquire(ctx, client.ID, msg.From)
	if err != nil {
		return "", fmt.Errorf("dispatch: serialize customer %s: %w", msg.From, err)
	}
	defer release()

	// An identical delivery may have completed while this one waited on
	// the lock. Re-check now that we hold it.
	if seen, err := s.processed.AlreadyProcessed(ctx, msg.MessageSid); err == nil && seen {
		s.logger.Info("duplicate webhook delivery skipped", "message_sid", msg.MessageSid)
		return OutcomeOK, nil
	}

	lead, err := s.leads.GetByCustomerPhone(ctx, client.ID, msg.From)
	if err != nil && !errors.Is(err, leads.ErrLeadNotFound) {
		return "", fmt.Errorf("dispatch: load lead: %w", err)
	}
	if lead.Paused(s.now()) {
		return OutcomePaused, nil
	}
	if IsClosingPhrase(msg.Body) {
		return OutcomeSilent, nil
	}

	cfg, err := s.industries.GetByType(ctx, client.IndustryType)
	if err != nil {
		if !errors.Is(err, industry.ErrConfigNotFound) {
			s.logger.Error("industry config lookup failed, using default", "industry_type", client.IndustryType, "error", err)
		}
		cfg = industry.DefaultConfig(client.IndustryType)
	}

	// Safety keywords bypass the AI entirely and run against the original
	// body, before redaction.
	if keyword, hit := MatchSafetyKeyword(cfg.SafetyKeywords, msg.Body); hit {
		return s.safetyStop(ctx, client, msg, keyword, cfg.SafetyResponse)
	}

	reply, usage, err := s.respond(ctx, client, cfg, lead, msg)
	if err != nil {
		return "", err
	}

	if err := s.messenger.SendReply(ctx, OutboundReply{
		ClientID: client.ID,
		To:       msg.From,
		From:     msg.To,
		Body:     reply,
	}); err != nil {
		s.metrics.ObserveOutbound("failed")
		return "", fmt.Errorf("dispatch: send reply: %w", err)
	}
	s.metrics.ObserveOutbound("sent")
	s.metrics.AddLLMTokens(client.ID, int(usage.TotalTokens))

	s.recordCompletion(ctx, client, msg, reply, usage)
	return OutcomeOK, nil
}

// safetyStop sends the configured fixed response and records the incident.
// The compliance row keeps the original body so operators see exactly what
// the customer wrote.
func (s *Service) safetyStop(ctx context.Context, client *clients.Client, msg InboundMessage, keyword, response string) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.safety_stop")
	defer span.End()

	s.logger.Warn("safety keyword matched",
		"client_id", client.ID,
		"keyword", keyword,
	)

	if response != "" {
		if err := s.messenger.SendReply(ctx, OutboundReply{
			ClientID: client.ID,
			To:       msg.From,
			From:     msg.To,
			Body:     response,
		}); err != nil {
			s.metrics.ObserveOutbound("failed")
			return "", fmt.Errorf("dispatch: send safety response: %w", err)
		}
		s.metrics.ObserveOutbound("sent")
	}

	s.withRetry(ctx, "compliance log", func(ctx context.Context) error {
		return s.compliance.LogSafetyStop(ctx, client.ID, msg.From, msg.Body)
	})
	s.withRetry(ctx, "mark processed", func(ctx context.Context) error {
		return s.processed.MarkProcessed(ctx, msg.MessageSid)
	})
	return OutcomeSafetyStop, nil
}

// respond builds the model request and invokes the AI responder.
func (s *Service) respond(ctx context.Context, client *clients.Client, cfg *industry.Config, lead *leads.Lead, msg InboundMessage) (string, TokenUsage, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.respond")
	defer span.End()

	localNow := s.now().In(ClientLocation(client.Timezone))
	system := []string{BuildSystemInstruction(PromptContext{
		Template: renderTemplate(cfg.SystemPromptTemplate, client),
		City:     client.City,
		Now:      localNow,
	})}
	if lead != nil && lead.ConversationHistory != "" {
		system = append(system, "PREVIOUS CONVERSATION:\n"+lead.ConversationHistory)
	}

	userMsg := ChatMessage{Role: ChatRoleUser, Content: SafeBody(msg.Body)}
	if msg.NumMedia > 0 && msg.MediaURL != "" {
		// Photo messages get the industry's vision instruction as the text
		// part; any caption still reaches the lead history unchanged.
		userMsg.ImageURL = s.archiver.Archive(ctx, msg.MediaURL, msg.From)
		userMsg.Content = cfg.VisionInstruction
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()

	resp, err := s.llm.Complete(llmCtx, LLMRequest{
		Model:       s.opts.Model,
		System:      system,
		Messages:    []ChatMessage{userMsg},
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		return "", TokenUsage{}, fmt.Errorf("%w: %v", ErrAIResponder, err)
	}
	return resp.Text, resp.Usage, nil
}

// recordCompletion persists the post-send bookkeeping. The reply is already
// on the wire at this point, so failures here are retried once and then
// logged loudly instead of surfacing as request errors.
func (s *Service) recordCompletion(ctx context.Context, client *clients.Client, msg InboundMessage, reply string, usage TokenUsage) {
	s.withRetry(ctx, "usage log", func(ctx context.Context) error {
		return s.usage.Record(ctx, client.ID, int(usage.TotalTokens))
	})

	s.withRetry(ctx, "history append", func(ctx context.Context) error {
		if _, err := s.leads.GetOrCreateByPhone(ctx, client.ID, msg.From); err != nil {
			return err
		}
		_, err := s.leads.AppendHistory(ctx, leads.HistoryUpdate{
			ClientID:      client.ID,
			CustomerPhone: msg.From,
			Entry:         fmt.Sprintf(" | User: %s | AI: %s", SafeBody(msg.Body), reply),
			MessageSid:    msg.MessageSid,
			MaxLen:        s.opts.HistoryMaxLen,
		})
		return err
	})

	s.withRetry(ctx, "mark processed", func(ctx context.Context) error {
		return s.processed.MarkProcessed(ctx, msg.MessageSid)
	})
}

// withRetry runs a storage write, retrying once on failure. A second failure
// is logged with the reply/record divergence called out rather than lost.
func (s *Service) withRetry(ctx context.Context, label string, fn func(ctx context.Context) error) {
	err := fn(ctx)
	if err == nil {
		return
	}
	s.logger.Warn("storage write failed, retrying once", "write", label, "error", err)
	if err = fn(ctx); err != nil {
		s.logger.Error("storage write failed after retry, state may diverge from sent reply",
			"write", label,
			"error", err,
		)
	}
}

// renderTemplate substitutes the business placeholders an industry template
// may carry.
func renderTemplate(template string, client *clients.Client) string {
	return strings.NewReplacer(
		"{business_name}", client.BusinessName,
		"{city}", client.City,
	).Replace(template)
}
