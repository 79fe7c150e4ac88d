// Package sampledata generates a deterministic demo dataset for a tenant.
// Event ids depend only on the day and slot, so provisioning the same
// window twice inserts nothing new.
package sampledata

import (
	"fmt"
	"math"
	"time"

	"github.com/PratikDhanave/analytics-workspace/internal/catalog"
	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

const (
	DefaultDays         = 21
	DefaultEventsPerDay = 12
)

var (
	channels  = []string{"Paid Search", "Organic", "Email", "Direct", "Social"}
	products  = []string{"Denim Jacket", "Classic Tee", "Runner Shoes", "Canvas Tote"}
	brands    = []string{"Gap", "Old Navy", "PariAI", "Banana Republic"}
	campaigns = []string{"Spring Launch", "Weekend Flash", "Retention Push", "Brand Awareness"}
)

// Build returns eventsPerDay events for each of the days UTC days ending
// today. Non-positive arguments fall back to the defaults.
func Build(tenantID string, days, eventsPerDay int, now time.Time) []models.Event {
	if days <= 0 {
		days = DefaultDays
	}
	if eventsPerDay <= 0 {
		eventsPerDay = DefaultEventsPerDay
	}
	today := catalog.StartOfDay(now)

	events := make([]models.Event, 0, days*eventsPerDay)
	for dayOffset := 0; dayOffset < days; dayOffset++ {
		dayStart := today.AddDate(0, 0, -dayOffset)
		for slot := 0; slot < eventsPerDay; slot++ {
			i := dayOffset*eventsPerDay + slot
			channel := channels[i%len(channels)]
			product := products[(i+1)%len(products)]

			name := "page_view"
			switch {
			case slot%5 == 0:
				name = "purchase"
			case slot%3 == 0:
				name = "add_to_cart"
			}
			var revenue, netDemand float64
			if name == "purchase" {
				revenue = float64(49 + (i%6)*18)
				netDemand = math.Floor(revenue*0.92 + 0.5)
			}

			ts := dayStart.Add(time.Duration((slot*2)%24)*time.Hour + time.Duration((slot*7)%60)*time.Minute)
			events = append(events, models.Event{
				TenantID:  tenantID,
				EventID:   fmt.Sprintf("sample-v3-%s-%d", catalog.FormatDay(ts), slot),
				EventName: name,
				Timestamp: ts,
				UserID:    fmt.Sprintf("demo-user-%d", i%35),
				SessionID: fmt.Sprintf("demo-session-%d", i%80),
				Properties: models.Properties{
					"channel":   channel,
					"brand":     brands[(i+3)%len(brands)],
					"product":   product,
					"campaign":  campaigns[(i+2)%len(campaigns)],
					"revenue":   revenue,
					"netDemand": netDemand,
					"country":   country(channel),
					"page":      page(product),
				},
			})
		}
	}
	return events
}

func country(channel string) string {
	if channel == "Paid Search" || channel == "Direct" {
		return "US"
	}
	return "CA"
}

func page(product string) string {
	switch product {
	case "Runner Shoes":
		return "/products/runner-shoes"
	case "Denim Jacket":
		return "/products/denim-jacket"
	}
	return "/home"
}
