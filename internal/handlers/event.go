package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/auth"
	"github.com/PratikDhanave/analytics-workspace/internal/models"
	"github.com/PratikDhanave/analytics-workspace/internal/ratelimit"
	"github.com/PratikDhanave/analytics-workspace/internal/store"
)

const (
	maxBatchEvents   = 500
	maxEventNameLen  = 120
	maxIngestPayload = 4 << 20
)

// parseRFC3339 parses an RFC3339 timestamp and normalizes it to UTC.
func parseRFC3339(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// RegisterEventRoutes registers the ingestion-path endpoint.
//
// POST /events
// - Requires X-API-Key (tenant context), rate limited per key
// - Accepts a batch {orgId?, events: [...]} or a single event
// - Durable: returns success only after the store write completes
// - Idempotent: duplicates detected via (tenant_id, event_id) uniqueness
func RegisterEventRoutes(r gin.IRoutes, st store.Store, limiter *ratelimit.Limiter, log logrus.FieldLogger) {
	r.POST("/events", func(c *gin.Context) {
		tenantID := auth.TenantID(c)
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, err := limiter.Allow(c.Request.Context(), auth.APIKeyID(c)); err != nil {
			if errors.Is(err, ratelimit.ErrLimited) {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
				return
			}
			// counter store down: let ingestion through
			log.WithError(err).Warn("rate limiter unavailable")
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIngestPayload))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		if _, ok := probe["events"]; ok {
			ingestBatch(c, st, log, tenantID, body)
			return
		}
		ingestSingle(c, st, log, tenantID, body)
	})
}

func ingestBatch(c *gin.Context, st store.Store, log logrus.FieldLogger, tenantID string, body []byte) {
	var req models.IngestBatchRequest
	if err := decodeJSON(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if _, ok := requireTenant(c, req.OrgID); !ok {
		return
	}
	if len(req.Events) == 0 || len(req.Events) > maxBatchEvents {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("events must contain 1 to %d items", maxBatchEvents)})
		return
	}

	events := make([]models.Event, 0, len(req.Events))
	for i, in := range req.Events {
		if in.EventID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("events[%d].eventId required", i)})
			return
		}
		e, err := buildEvent(tenantID, in.EventID, in.EventName, in.Timestamp, in.UserID, in.SessionID, in.Properties)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("events[%d]: %v", i, err)})
			return
		}
		events = append(events, e)
	}

	inserted, err := st.InsertEvents(c.Request.Context(), events)
	if err != nil {
		log.WithError(err).WithField("tenant", tenantID).Error("insert events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db insert failed"})
		return
	}

	c.JSON(http.StatusAccepted, models.IngestBatchResponse{
		Accepted: inserted,
		Rejected: len(events) - inserted,
		Total:    len(events),
	})
}

func ingestSingle(c *gin.Context, st store.Store, log logrus.FieldLogger, tenantID string, body []byte) {
	var req models.EventIngestRequest
	if err := decodeJSON(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	// Idempotency precedence:
	// 1) Idempotency-Key header (recommended for retries)
	// 2) event_id in payload
	// 3) generated UUID (fallback; cannot dedupe client retries)
	eventID := c.GetHeader("Idempotency-Key")
	if eventID == "" {
		eventID = req.EventID
	}
	if eventID == "" {
		eventID = uuid.New().String()
	}

	e, err := buildEvent(tenantID, eventID, req.EventName, req.Timestamp, req.UserID, req.SessionID, req.Properties)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inserted, err := st.InsertEvents(c.Request.Context(), []models.Event{e})
	if err != nil {
		log.WithError(err).WithField("tenant", tenantID).Error("insert event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db insert failed"})
		return
	}

	// 201 for new events, 200 for duplicates (idempotent success).
	status := http.StatusCreated
	if inserted == 0 {
		status = http.StatusOK
	}
	c.JSON(status, models.EventIngestResponse{
		EventID:   eventID,
		Duplicate: inserted == 0,
	})
}

// decodeJSON keeps numbers as json.Number so property amounts stay exact.
func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func buildEvent(tenantID, eventID, name, ts, userID, sessionID string, props models.Properties) (models.Event, error) {
	if name == "" {
		return models.Event{}, errors.New("event name required")
	}
	if utf8.RuneCountInString(name) > maxEventNameLen {
		return models.Event{}, fmt.Errorf("event name longer than %d characters", maxEventNameLen)
	}
	if ts == "" {
		return models.Event{}, errors.New("timestamp required")
	}
	t, err := parseRFC3339(ts)
	if err != nil {
		return models.Event{}, errors.New("timestamp must be RFC3339")
	}
	for k, v := range props {
		switch v.(type) {
		case nil, string, bool, json.Number, float64:
		default:
			return models.Event{}, fmt.Errorf("property %q must be a string, number, boolean or null", k)
		}
	}
	if props == nil {
		props = models.Properties{}
	}
	return models.Event{
		TenantID:   tenantID,
		EventID:    eventID,
		EventName:  name,
		Timestamp:  t,
		UserID:     userID,
		SessionID:  sessionID,
		Properties: props,
	}, nil
}
