package store

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/PratikDhanave/analytics-workspace/internal/engine"
	"github.com/PratikDhanave/analytics-workspace/internal/models"
	"github.com/PratikDhanave/analytics-workspace/internal/sqlgen"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

const insertEventSQL = `
	INSERT INTO events(tenant_id, event_id, event_name, ts, user_id, session_id, properties)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
	ON CONFLICT (tenant_id, event_id) DO NOTHING`

const scanEventsSQL = `
	SELECT event_id, event_name, ts, COALESCE(user_id, ''), COALESCE(session_id, ''), properties
	FROM events
	WHERE tenant_id = $1 AND ts >= $2 AND ts <= $3
	ORDER BY ts ASC, event_id COLLATE "C" ASC`

// PostgresStore is the durable persistence layer for events. Besides
// scanning it can evaluate aggregation plans in the database.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(ctx context.Context, dbURL string, log logrus.FieldLogger) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PostgresStore{pool: pool, log: log.WithField("component", "postgres")}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return errors.Wrap(err, "apply schema")
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// InsertEvents persists events in one batch and returns how many were new.
//
// Duplicate detection is enforced by the primary key on (tenant_id, event_id),
// which keeps ingestion safe under retries and at-least-once delivery.
func (p *PostgresStore) InsertEvents(ctx context.Context, events []models.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		if e.TenantID == "" || e.EventID == "" || e.EventName == "" {
			return 0, errors.New("tenantID/eventID/eventName required")
		}
		props := e.Properties
		if props == nil {
			props = map[string]any{}
		}
		propsJSON, err := json.Marshal(props)
		if err != nil {
			return 0, errors.Wrapf(err, "marshal properties of event %s", e.EventID)
		}
		batch.Queue(insertEventSQL, e.TenantID, e.EventID, e.EventName, e.Timestamp.UTC(), e.UserID, e.SessionID, propsJSON)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range events {
		tag, err := br.Exec()
		if err != nil {
			p.log.WithError(err).Error("insert events")
			return inserted, errors.Wrap(err, "insert events")
		}
		// a conflict affects no rows
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Scan returns a tenant's events with from <= ts <= to, ordered by
// timestamp then event id.
func (p *PostgresStore) Scan(ctx context.Context, tenantID string, from, to time.Time) ([]models.Event, error) {
	rows, err := p.pool.Query(ctx, scanEventsSQL, tenantID, from, to)
	if err != nil {
		p.log.WithError(err).Error("scan events")
		return nil, errors.Wrap(err, "scan events")
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		e := models.Event{TenantID: tenantID}
		var props []byte
		if err := rows.Scan(&e.EventID, &e.EventName, &e.Timestamp, &e.UserID, &e.SessionID, &props); err != nil {
			return nil, errors.Wrap(err, "read event row")
		}
		e.Timestamp = e.Timestamp.UTC()
		if e.Properties, err = decodeProperties(props); err != nil {
			return nil, errors.Wrapf(err, "decode properties of event %s", e.EventID)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		p.log.WithError(err).Error("scan events")
		return nil, errors.Wrap(err, "scan events")
	}
	return out, nil
}

// decodeProperties keeps numbers as json.Number so amounts stay exact.
func decodeProperties(raw []byte) (map[string]any, error) {
	props := map[string]any{}
	if len(raw) == 0 {
		return props, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&props); err != nil {
		return nil, err
	}
	return props, nil
}

// Aggregate evaluates a table plan in the database. Group rows and totals
// are fetched concurrently over the same WHERE clause.
func (p *PostgresStore) Aggregate(ctx context.Context, plan *engine.Plan) (*engine.Partial, error) {
	stmts, err := sqlgen.Table(plan)
	if err != nil {
		return nil, err
	}

	out := &engine.Partial{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		groups, err := p.queryGroups(gctx, stmts.Rows, len(plan.Dimensions), len(plan.Metrics))
		out.Groups = groups
		return err
	})
	g.Go(func() error {
		totals, err := p.queryTotals(gctx, stmts.Totals, len(plan.Metrics))
		out.Totals = totals
		return err
	})
	if err := g.Wait(); err != nil {
		p.log.WithError(err).WithField("tenant", plan.TenantID).Error("aggregate")
		return nil, err
	}
	return out, nil
}

func (p *PostgresStore) queryGroups(ctx context.Context, stmt sqlgen.Statement, nDims, nMetrics int) ([]engine.Group, error) {
	rows, err := p.pool.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, errors.Wrap(err, "query groups")
	}
	defer rows.Close()

	var groups []engine.Group
	for rows.Next() {
		dims := make([]string, nDims)
		raw := make([]string, nMetrics)
		dest := make([]any, 0, nDims+nMetrics)
		for i := range dims {
			dest = append(dest, &dims[i])
		}
		for i := range raw {
			dest = append(dest, &raw[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "read group row")
		}
		metrics, err := parseDecimals(raw)
		if err != nil {
			return nil, err
		}
		groups = append(groups, engine.Group{Dimensions: dims, Metrics: metrics})
	}
	return groups, errors.Wrap(rows.Err(), "query groups")
}

func (p *PostgresStore) queryTotals(ctx context.Context, stmt sqlgen.Statement, nMetrics int) ([]decimal.Decimal, error) {
	raw := make([]string, nMetrics)
	dest := make([]any, nMetrics)
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := p.pool.QueryRow(ctx, stmt.SQL, stmt.Args...).Scan(dest...); err != nil {
		return nil, errors.Wrap(err, "query totals")
	}
	return parseDecimals(raw)
}

// AggregateSeries evaluates a series plan in the database.
func (p *PostgresStore) AggregateSeries(ctx context.Context, plan *engine.SeriesPlan) ([]engine.SeriesRow, error) {
	stmt, err := sqlgen.Series(plan)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		p.log.WithError(err).WithField("tenant", plan.TenantID).Error("aggregate series")
		return nil, errors.Wrap(err, "query series")
	}
	defer rows.Close()

	var out []engine.SeriesRow
	for rows.Next() {
		var r engine.SeriesRow
		var raw string
		if err := rows.Scan(&r.Bucket, &r.Dimension, &raw); err != nil {
			return nil, errors.Wrap(err, "read series row")
		}
		if r.Value, err = decimal.NewFromString(raw); err != nil {
			return nil, errors.Wrapf(err, "parse series value %q", raw)
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "query series")
}

func parseDecimals(raw []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(raw))
	for i, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.Wrapf(err, "parse metric value %q", s)
		}
		out[i] = d
	}
	return out, nil
}
