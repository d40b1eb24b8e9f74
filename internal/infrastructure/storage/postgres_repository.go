package storage

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"NewsPipeline/internal/ports"
)

const (
	rawItemsTable    = "raw_items"
	enrichedTable    = "enriched_items"
	processLogsTable = "process_logs"

	pqUniqueViolation = "23505"
	pqInvalidText     = "22P02"
)

// PostgresRepository persists raw items, enriched items and process logs.
type PostgresRepository struct {
	db   *sqlx.DB
	psql sq.StatementBuilderType
	now  func() time.Time
}

var (
	_ ports.RawItemStore      = (*PostgresRepository)(nil)
	_ ports.EnrichedItemStore = (*PostgresRepository)(nil)
	_ ports.ProcessLogStore   = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sqlx handle.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *PostgresRepository) ready() error {
	if r == nil || r.db == nil {
		return fmt.Errorf("postgres repository is not configured")
	}
	return nil
}

// jsonColumn stores any JSON-encodable value in a JSONB column. A NULL column
// scans to Valid=false. Values go out as text since lib/pq sends []byte as bytea.
type jsonColumn[T any] struct {
	V     T
	Valid bool
}

func newJSONColumn[T any](v T) jsonColumn[T] {
	return jsonColumn[T]{V: v, Valid: true}
}

// Value implements driver.Valuer.
func (c jsonColumn[T]) Value() (driver.Value, error) {
	if !c.Valid {
		return nil, nil
	}
	raw, err := json.Marshal(c.V)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (c *jsonColumn[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		var zero T
		c.V, c.Valid = zero, false
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if err := json.Unmarshal(raw, &c.V); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	c.Valid = true
	return nil
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

// isInvalidText catches malformed uuid literals, which behave like missing rows.
func isInvalidText(err error) bool {
	return pqCode(err) == pqInvalidText
}
