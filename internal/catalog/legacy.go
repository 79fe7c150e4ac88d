package catalog

import "strings"

// LegacyPropertyPrefix marks a dotted property path from the old query builder.
const LegacyPropertyPrefix = "properties."

// AliasTable maps keys from an older revision of the query builder onto the
// current catalog. It is only consulted while a query is being constructed.
type AliasTable struct {
	Version    int
	Dimensions map[string]DimensionKey
	Metrics    map[string]MetricKey
	Fields     map[string]string
}

// LegacyAliases is the current translation table.
var LegacyAliases = AliasTable{
	Version: 1,
	Dimensions: map[string]DimensionKey{
		"dimension:eventName": EventName,
		"dimension:channel":   Channel,
		"dimension:brand":     Brand,
		"dimension:product":   Product,
		"dimension:campaign":  Campaign,
		"dimension:day":       Day,
		"dimension:hour":      Hour,
	},
	Metrics: map[string]MetricKey{
		"metric:event_count":    Events,
		"metric:unique_users":   Users,
		"metric:revenue_sum":    Revenue,
		"metric:net_demand_sum": NetDemand,
	},
	Fields: map[string]string{
		"properties.channel":   "channel",
		"properties.brand":     "brand",
		"properties.product":   "product",
		"properties.campaign":  "campaign",
		"properties.revenue":   "revenue",
		"properties.netDemand": "netDemand",
	},
}

// TranslateDimension accepts a current or legacy dimension key.
func (a AliasTable) TranslateDimension(key string) (DimensionKey, bool) {
	if k, ok := LookupDimension(key); ok {
		return k, true
	}
	k, ok := a.Dimensions[key]
	return k, ok
}

// TranslateMetric accepts a current or legacy metric key.
func (a AliasTable) TranslateMetric(key string) (MetricKey, bool) {
	if k, ok := LookupMetric(key); ok {
		return k, true
	}
	k, ok := a.Metrics[key]
	return k, ok
}

// TranslateField resolves a segment field name. Dotted property paths that
// no catalog field claims become raw text fields over that property.
func (a AliasTable) TranslateField(name string) (Field, bool) {
	if f, ok := LookupField(name); ok {
		return f, true
	}
	if alias, ok := a.Fields[name]; ok {
		return LookupField(alias)
	}
	if prop, ok := strings.CutPrefix(name, LegacyPropertyPrefix); ok && prop != "" {
		return Field{Name: name, Type: Text, Source: SourceProperty, Property: prop}, true
	}
	return Field{}, false
}
