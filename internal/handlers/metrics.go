package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/auth"
	"github.com/PratikDhanave/analytics-workspace/internal/cache"
	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/query"
	"github.com/PratikDhanave/analytics-workspace/internal/segment"
)

// RegisterMetricRoutes registers the event count endpoint.
//
// GET /metrics/count?event_name=...&from=...&to=...
// - Requires X-API-Key (tenant context)
// - Returns count for the window [from,to)
func RegisterMetricRoutes(r gin.IRoutes, svc *cache.Service, log logrus.FieldLogger) {
	r.GET("/metrics/count", func(c *gin.Context) {
		tenantID := auth.TenantID(c)
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		eventName := c.Query("event_name")
		fromStr := c.Query("from")
		toStr := c.Query("to")

		// Required query params per contract.
		if eventName == "" || fromStr == "" || toStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_name, from, to are required"})
			return
		}

		from, err := parseRFC3339(fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		to, err := parseRFC3339(toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}

		// Validate window to avoid confusing results.
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be < to"})
			return
		}

		q, err := countQuery(tenantID, eventName, from, to)
		if err != nil {
			respondQueryError(c, log, err)
			return
		}
		res, err := svc.Table(c.Request.Context(), q)
		if err != nil {
			respondQueryError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"event_name": eventName,
			"count":      int64(res.Totals[string(catalog.Events)]),
		})
	})
}

// countQuery counts one event name over [from, to). Query ranges are
// inclusive, so the upper bound moves back by the smallest step.
func countQuery(tenantID, eventName string, from, to time.Time) (*query.Query, error) {
	return query.New(tenantID, query.TableRequest{
		DateRange: query.DateRange{
			From: from.Format(time.RFC3339Nano),
			To:   to.Add(-time.Nanosecond).Format(time.RFC3339Nano),
		},
		MetricKeys: []string{string(catalog.Events)},
		Segment: &segment.Node{
			Op: string(segment.And),
			Rules: []segment.Node{
				{Field: string(catalog.EventName), Operator: string(segment.Eq), Value: eventName},
			},
		},
	})
}
