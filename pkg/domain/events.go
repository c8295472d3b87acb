package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRequest      EventType = "request"
	EventSessionOpen  EventType = "session_open"
	EventSessionClose EventType = "session_close"
	EventTranslate    EventType = "translate"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// RequestEvent describes one round trip to the content API.
type RequestEvent struct {
	EventBase
	Op         string        `json:"op"`
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// SessionEvent is emitted when a session is opened or closed.
type SessionEvent struct {
	EventBase
	SiteName string `json:"site_name"`
	Err      error  `json:"-"`
}

// TranslateEvent summarises a translation pass.
type TranslateEvent struct {
	EventBase
	SiteName      string        `json:"site_name"`
	Items         int           `json:"items"`
	SubReferences int           `json:"sub_references"`
	Duration      time.Duration `json:"duration"`
	Err           error         `json:"-"`
}

// LifecycleHooks defines callbacks for observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnRequest   func(context.Context, *RequestEvent)
	OnSession   func(context.Context, *SessionEvent)
	OnTranslate func(context.Context, *TranslateEvent)
}

// EmitRequest invokes OnRequest if set.
func (h LifecycleHooks) EmitRequest(ctx context.Context, e *RequestEvent) {
	if h.OnRequest != nil {
		h.OnRequest(ctx, e)
	}
}

// EmitSession invokes OnSession if set.
func (h LifecycleHooks) EmitSession(ctx context.Context, e *SessionEvent) {
	if h.OnSession != nil {
		h.OnSession(ctx, e)
	}
}

// EmitTranslate invokes OnTranslate if set.
func (h LifecycleHooks) EmitTranslate(ctx context.Context, e *TranslateEvent) {
	if h.OnTranslate != nil {
		h.OnTranslate(ctx, e)
	}
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRequest: func(ctx context.Context, e *RequestEvent) {
			h.EmitRequest(ctx, e)
			other.EmitRequest(ctx, e)
		},
		OnSession: func(ctx context.Context, e *SessionEvent) {
			h.EmitSession(ctx, e)
			other.EmitSession(ctx, e)
		},
		OnTranslate: func(ctx context.Context, e *TranslateEvent) {
			h.EmitTranslate(ctx, e)
			other.EmitTranslate(ctx, e)
		},
	}
}
