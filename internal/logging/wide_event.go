package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const (
	contextKeyWideEvent contextKey = "wide_event"
	contextKeyTraceID   contextKey = "trace_id"
)

// WideEvent is a single structured log entry describing one request.
// Handlers enrich it as the request moves through account resolution, plan listing and checkout.
type WideEvent struct {
	TraceID   string    `json:"trace_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	HTTPMethod     string `json:"http_method,omitempty"`
	HTTPPath       string `json:"http_path,omitempty"`
	HTTPStatusCode int    `json:"http_status_code,omitempty"`
	HTTPDurationMs int64  `json:"http_duration_ms,omitempty"`

	UserID    string `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	VisitorID string `json:"visitor_id,omitempty"`

	AccountID     string `json:"account_id,omitempty"`
	AccountSource string `json:"account_source,omitempty"`
	PlanID        string `json:"plan_id,omitempty"`
	PlanCount     *int   `json:"plan_count,omitempty"`
	CacheHit      *bool  `json:"cache_hit,omitempty"`
	CheckoutID    string `json:"checkout_session_id,omitempty"`

	Error          string `json:"error,omitempty"`
	ErrorStage     string `json:"error_stage,omitempty"`
	PanicRecovered bool   `json:"panic_recovered,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewWideEvent creates a new WideEvent with a trace ID and timestamp
func NewWideEvent(eventType string) *WideEvent {
	return &WideEvent{
		TraceID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

// WithContext attaches a WideEvent to a context
func WithContext(ctx context.Context, event *WideEvent) context.Context {
	ctx = context.WithValue(ctx, contextKeyWideEvent, event)
	ctx = context.WithValue(ctx, contextKeyTraceID, event.TraceID)
	return ctx
}

// FromContext retrieves the WideEvent from a context
func FromContext(ctx context.Context) *WideEvent {
	if event, ok := ctx.Value(contextKeyWideEvent).(*WideEvent); ok {
		return event
	}
	return nil
}

// GetTraceID retrieves just the trace ID from context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

func EnrichHTTP(ctx context.Context, method, path string) {
	if event := FromContext(ctx); event != nil {
		event.HTTPMethod = method
		event.HTTPPath = path
	}
}

func EnrichHTTPStatus(ctx context.Context, statusCode int) {
	if event := FromContext(ctx); event != nil {
		event.HTTPStatusCode = statusCode
	}
}

func EnrichHTTPDuration(ctx context.Context, duration time.Duration) {
	if event := FromContext(ctx); event != nil {
		event.HTTPDurationMs = duration.Milliseconds()
	}
}

func EnrichUser(ctx context.Context, userID, email string) {
	if event := FromContext(ctx); event != nil {
		event.UserID = userID
		event.UserEmail = email
	}
}

func EnrichVisitor(ctx context.Context, visitorID string) {
	if event := FromContext(ctx); event != nil {
		event.VisitorID = visitorID
	}
}

func EnrichAccount(ctx context.Context, accountID, source string) {
	if event := FromContext(ctx); event != nil {
		event.AccountID = accountID
		event.AccountSource = source
	}
}

func EnrichPlans(ctx context.Context, count int, cacheHit bool) {
	if event := FromContext(ctx); event != nil {
		event.PlanCount = &count
		event.CacheHit = &cacheHit
	}
}

func EnrichCheckout(ctx context.Context, planID, sessionID string) {
	if event := FromContext(ctx); event != nil {
		event.PlanID = planID
		event.CheckoutID = sessionID
	}
}

func EnrichError(ctx context.Context, err error, stage string) {
	if event := FromContext(ctx); event != nil {
		if err != nil {
			event.Error = err.Error()
			event.ErrorStage = stage
		}
	}
}

func EnrichPanic(ctx context.Context) {
	if event := FromContext(ctx); event != nil {
		event.PanicRecovered = true
	}
}

func EnrichMetadata(ctx context.Context, key string, value interface{}) {
	if event := FromContext(ctx); event != nil {
		event.Metadata[key] = value
	}
}

// Emit writes the WideEvent through the global zerolog logger.
func Emit(ctx context.Context) {
	event := FromContext(ctx)
	if event == nil {
		return
	}
	EmitTo(log.Logger, event)
}

func EmitTo(logger zerolog.Logger, event *WideEvent) {
	var e *zerolog.Event
	if event.Error != "" || event.PanicRecovered {
		e = logger.Error()
	} else {
		e = logger.Info()
	}

	e = e.Str("trace_id", event.TraceID).
		Str("event_type", event.EventType).
		Time("started_at", event.Timestamp)

	if event.HTTPMethod != "" {
		e = e.Str("http_method", event.HTTPMethod)
	}
	if event.HTTPPath != "" {
		e = e.Str("http_path", event.HTTPPath)
	}
	if event.HTTPStatusCode != 0 {
		e = e.Int("http_status_code", event.HTTPStatusCode)
	}
	e = e.Int64("http_duration_ms", event.HTTPDurationMs)

	if event.UserID != "" {
		e = e.Str("user_id", event.UserID)
	}
	if event.UserEmail != "" {
		e = e.Str("user_email", event.UserEmail)
	}
	if event.VisitorID != "" {
		e = e.Str("visitor_id", event.VisitorID)
	}

	if event.AccountID != "" {
		e = e.Str("account_id", event.AccountID)
	}
	if event.AccountSource != "" {
		e = e.Str("account_source", event.AccountSource)
	}
	if event.PlanID != "" {
		e = e.Str("plan_id", event.PlanID)
	}
	if event.PlanCount != nil {
		e = e.Int("plan_count", *event.PlanCount)
	}
	if event.CacheHit != nil {
		e = e.Bool("cache_hit", *event.CacheHit)
	}
	if event.CheckoutID != "" {
		e = e.Str("checkout_session_id", event.CheckoutID)
	}

	if event.Error != "" {
		e = e.Str("error", event.Error)
	}
	if event.ErrorStage != "" {
		e = e.Str("error_stage", event.ErrorStage)
	}
	if event.PanicRecovered {
		e = e.Bool("panic_recovered", true)
	}

	if len(event.Metadata) > 0 {
		e = e.Interface("metadata", event.Metadata)
	}

	e.Msg("wide_event")
}
