// Package cache memoizes query results for a short TTL. Entries are keyed
// by namespace, tenant and a hash of the normalized query parameters, so a
// whole tenant can be swept by prefix when its data changes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Namespaces of cached results.
const (
	NamespaceTable      = "table"
	NamespaceTimeseries = "timeseries"
	NamespaceFreeform   = "freeform"
)

// Namespaces lists every namespace a tenant may have entries in.
var Namespaces = []string{NamespaceTable, NamespaceTimeseries, NamespaceFreeform}

// Store holds opaque values by key. Implementations must be safe for
// concurrent use; a racing Set is last-write-wins.
type Store interface {
	// Get returns the value and true, or false on a miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Sweep deletes every key starting with prefix and returns how many
	// were removed.
	Sweep(ctx context.Context, prefix string) (int, error)
}

// Key builds namespace:tenant:hash where hash covers the canonical JSON of
// params. encoding/json emits struct fields in declaration order and map
// keys sorted, so equal params always hash equally.
func Key(namespace, tenantID string, params any) (string, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return TenantPrefix(namespace, tenantID) + fmt.Sprintf("%016x", xxhash.Sum64(b)), nil
}

// TenantPrefix is the key prefix of a tenant's entries in namespace.
func TenantPrefix(namespace, tenantID string) string {
	return namespace + ":" + tenantID + ":"
}

// SweepTenant removes a tenant's entries from every namespace.
func SweepTenant(ctx context.Context, s Store, tenantID string) (int, error) {
	total := 0
	for _, ns := range Namespaces {
		n, err := s.Sweep(ctx, TenantPrefix(ns, tenantID))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
