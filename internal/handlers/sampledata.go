package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/cache"
	"github.com/PratikDhanave/analytics-workspace/internal/sampledata"
	"github.com/PratikDhanave/analytics-workspace/internal/store"
)

const (
	maxSampleDays         = 90
	maxSampleEventsPerDay = 200
)

type sampleDataRequest struct {
	Days         int `json:"days"`
	EventsPerDay int `json:"eventsPerDay"`
}

// RegisterSampleDataRoutes registers demo data provisioning.
//
// POST /sample-data {days?, eventsPerDay?}
// Inserts the deterministic demo dataset for the caller's tenant and sweeps
// the tenant's cached query results.
func RegisterSampleDataRoutes(r gin.IRoutes, st store.Store, svc *cache.Service, now func() time.Time, log logrus.FieldLogger) {
	r.POST("/sample-data", func(c *gin.Context) {
		tenantID, ok := requireTenant(c, "")
		if !ok {
			return
		}

		var req sampleDataRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
				return
			}
		}
		if req.Days < 0 || req.Days > maxSampleDays || req.EventsPerDay < 0 || req.EventsPerDay > maxSampleEventsPerDay {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be 0..90 and eventsPerDay 0..200"})
			return
		}

		events := sampledata.Build(tenantID, req.Days, req.EventsPerDay, now())
		inserted, err := st.InsertEvents(c.Request.Context(), events)
		if err != nil {
			log.WithError(err).WithField("tenant", tenantID).Error("insert sample data")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db insert failed"})
			return
		}
		if err := svc.InvalidateTenant(c.Request.Context(), tenantID); err != nil {
			log.WithError(err).WithField("tenant", tenantID).Warn("sweep tenant cache")
		}

		c.JSON(http.StatusOK, gin.H{"inserted": inserted, "total": len(events)})
	})
}
