// Package catalog is the closed vocabulary of dimensions, metrics and
// segment fields. Both execution strategies read it, so the property that
// backs a key is decided here and nowhere else.
package catalog

import (
	"time"
)

// None is the derived value of a dimension whose source is absent.
const None = "(none)"

// DimensionKey names a grouping axis.
type DimensionKey string

const (
	Channel   DimensionKey = "channel"
	Brand     DimensionKey = "brand"
	Product   DimensionKey = "product"
	Campaign  DimensionKey = "campaign"
	EventName DimensionKey = "eventName"
	Day       DimensionKey = "day"
	Hour      DimensionKey = "hour"
)

// MetricKey names an aggregate.
type MetricKey string

const (
	Events    MetricKey = "events"
	Users     MetricKey = "users"
	Revenue   MetricKey = "revenue"
	NetDemand MetricKey = "netDemand"
)

// FieldType constrains which segment operators apply to a field.
type FieldType int

const (
	Text FieldType = iota
	Number
	Date
)

func (t FieldType) String() string {
	switch t {
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "text"
	}
}

// Source says where a field's raw value lives on an event.
type Source int

const (
	SourceProperty Source = iota
	SourceEventName
	SourceUserID
	SourceDay
	SourceHour
)

// Field describes a readable value of an event.
type Field struct {
	Name     string
	Type     FieldType
	Source   Source
	Property string // set when Source is SourceProperty
}

// Aggregation is how a metric folds per-event contributions.
type Aggregation int

const (
	Count Aggregation = iota
	CountDistinctUsers
	Sum
)

// Metric describes how a metric key is computed.
type Metric struct {
	Key         MetricKey
	Aggregation Aggregation
	Property    string // summed property for Sum metrics
}

var (
	// Dimensions lists every legal dimension key in catalog order.
	Dimensions = []DimensionKey{Channel, Brand, Product, Campaign, EventName, Day, Hour}
	// Metrics lists every legal metric key in catalog order.
	Metrics = []MetricKey{Events, Users, Revenue, NetDemand}
)

var dimensions = map[DimensionKey]Field{
	Channel:   {Name: string(Channel), Type: Text, Source: SourceProperty, Property: "channel"},
	Brand:     {Name: string(Brand), Type: Text, Source: SourceProperty, Property: "brand"},
	Product:   {Name: string(Product), Type: Text, Source: SourceProperty, Property: "product"},
	Campaign:  {Name: string(Campaign), Type: Text, Source: SourceProperty, Property: "campaign"},
	EventName: {Name: string(EventName), Type: Text, Source: SourceEventName},
	Day:       {Name: string(Day), Type: Date, Source: SourceDay},
	Hour:      {Name: string(Hour), Type: Date, Source: SourceHour},
}

var metrics = map[MetricKey]Metric{
	Events:    {Key: Events, Aggregation: Count},
	Users:     {Key: Users, Aggregation: CountDistinctUsers},
	Revenue:   {Key: Revenue, Aggregation: Sum, Property: "revenue"},
	NetDemand: {Key: NetDemand, Aggregation: Sum, Property: "netDemand"},
}

// segment fields that are not dimensions, plus the dimensions usable in segments.
var fields = map[string]Field{
	"channel":   dimensions[Channel],
	"brand":     dimensions[Brand],
	"product":   dimensions[Product],
	"campaign":  dimensions[Campaign],
	"eventName": dimensions[EventName],
	"day":       dimensions[Day],
	"userId":    {Name: "userId", Type: Text, Source: SourceUserID},
	"revenue":   {Name: "revenue", Type: Number, Source: SourceProperty, Property: "revenue"},
	"netDemand": {Name: "netDemand", Type: Number, Source: SourceProperty, Property: "netDemand"},
}

// LookupDimension returns the dimension key for s when it is in the catalog.
func LookupDimension(s string) (DimensionKey, bool) {
	k := DimensionKey(s)
	_, ok := dimensions[k]
	return k, ok
}

// LookupMetric returns the metric key for s when it is in the catalog.
func LookupMetric(s string) (MetricKey, bool) {
	k := MetricKey(s)
	_, ok := metrics[k]
	return k, ok
}

// LookupField returns a catalog segment field by name.
func LookupField(name string) (Field, bool) {
	f, ok := fields[name]
	return f, ok
}

// DimensionField returns the field backing a dimension.
func DimensionField(k DimensionKey) (Field, bool) {
	f, ok := dimensions[k]
	return f, ok
}

// MetricDef returns the aggregation rule of a metric.
func MetricDef(k MetricKey) (Metric, bool) {
	m, ok := metrics[k]
	return m, ok
}

// FieldTypeOf reports the segment type of a catalog key or field name.
func FieldTypeOf(name string) (FieldType, bool) {
	if f, ok := fields[name]; ok {
		return f.Type, true
	}
	if f, ok := dimensions[DimensionKey(name)]; ok {
		return f.Type, true
	}
	return Text, false
}

// FormatDay renders the UTC day bucket of t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// FormatHour renders the UTC hour bucket of t as an ISO-8601 instant.
func FormatHour(t time.Time) string {
	return t.UTC().Truncate(time.Hour).Format("2006-01-02T15:00:00Z")
}
