package models

import "time"

// Event is an immutable behavioral fact owned by exactly one tenant.
// (TenantID, EventID) is unique; re-ingesting the same pair is a no-op.
type Event struct {
	TenantID   string
	EventID    string
	EventName  string
	Timestamp  time.Time
	UserID     string // empty when the event carried no user
	SessionID  string
	Properties Properties
}

// Properties is the open property bag attached to an event.
// Values are string, float64, json.Number, bool or nil.
type Properties map[string]any

// IngestEvent is a single event inside a POST /events batch.
type IngestEvent struct {
	EventID    string     `json:"eventId"`
	EventName  string     `json:"eventName"`
	Timestamp  string     `json:"timestamp"`
	UserID     string     `json:"userId,omitempty"`
	SessionID  string     `json:"sessionId,omitempty"`
	Properties Properties `json:"properties"`
}

// IngestBatchRequest is the POST /events payload.
// orgId is optional; when present it must match the API key's tenant.
type IngestBatchRequest struct {
	OrgID  string        `json:"orgId,omitempty"`
	Events []IngestEvent `json:"events"`
}

// IngestBatchResponse reports how many events were stored.
// Rejected counts duplicates of already stored (tenant, eventId) pairs.
type IngestBatchResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// EventIngestRequest is the single-event payload.
// event_id is optional; best practice is to pass Idempotency-Key header for retries.
type EventIngestRequest struct {
	EventID    string     `json:"event_id,omitempty"`
	EventName  string     `json:"event_name"`
	Timestamp  string     `json:"timestamp"`
	UserID     string     `json:"user_id,omitempty"`
	SessionID  string     `json:"session_id,omitempty"`
	Properties Properties `json:"properties,omitempty"`
}

// EventIngestResponse is returned for a single-event ingest.
// Duplicate indicates idempotent success (the event already existed).
type EventIngestResponse struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}
