package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"NewsPipeline/internal/domain"
)

var processLogColumns = []string{
	"process_log_id", "process_type", "status",
	"urls_processed", "urls_failed", "urls_duplicate",
	"total_urls", "success_count", "failed_count", "duplicate_count",
	"error_details", "started_at", "completed_at", "created_at", "updated_at",
}

type processLogRow struct {
	ID             string                     `db:"process_log_id"`
	Type           string                     `db:"process_type"`
	Status         string                     `db:"status"`
	URLsProcessed  pq.StringArray             `db:"urls_processed"`
	URLsFailed     pq.StringArray             `db:"urls_failed"`
	URLsDuplicate  pq.StringArray             `db:"urls_duplicate"`
	TotalURLs      int                        `db:"total_urls"`
	SuccessCount   int                        `db:"success_count"`
	FailedCount    int                        `db:"failed_count"`
	DuplicateCount int                        `db:"duplicate_count"`
	ErrorDetails   jsonColumn[map[string]any] `db:"error_details"`
	StartedAt      time.Time                  `db:"started_at"`
	CompletedAt    sql.NullTime               `db:"completed_at"`
	CreatedAt      time.Time                  `db:"created_at"`
	UpdatedAt      time.Time                  `db:"updated_at"`
}

func (row processLogRow) toDomain() domain.ProcessLog {
	log := domain.ProcessLog{
		ID:             row.ID,
		Type:           domain.ProcessType(row.Type),
		Status:         domain.ProcessStatus(row.Status),
		URLsProcessed:  nonNil(row.URLsProcessed),
		URLsFailed:     nonNil(row.URLsFailed),
		URLsDuplicate:  nonNil(row.URLsDuplicate),
		TotalURLs:      row.TotalURLs,
		SuccessCount:   row.SuccessCount,
		FailedCount:    row.FailedCount,
		DuplicateCount: row.DuplicateCount,
		StartedAt:      row.StartedAt.UTC(),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
	if row.ErrorDetails.Valid {
		log.ErrorDetails = row.ErrorDetails.V
	}
	if row.CompletedAt.Valid {
		completed := row.CompletedAt.Time.UTC()
		log.CompletedAt = &completed
	}
	return log
}

// CreateProcessLog inserts the opening record of a run.
func (r *PostgresRepository) CreateProcessLog(ctx context.Context, log domain.ProcessLog) (domain.ProcessLog, error) {
	if err := r.ready(); err != nil {
		return domain.ProcessLog{}, err
	}
	if !log.Type.Valid() {
		return domain.ProcessLog{}, fmt.Errorf("%w: process type %q", domain.ErrInvalidInput, log.Type)
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := r.now()
	if log.StartedAt.IsZero() {
		log.StartedAt = now
	}
	if log.Status == "" {
		log.Status = domain.StatusPartial
	}
	log.CreatedAt, log.UpdatedAt = now, now

	query, args, err := r.insertProcessLogQuery(log).ToSql()
	if err != nil {
		return domain.ProcessLog{}, fmt.Errorf("build insert process log: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.ProcessLog{}, fmt.Errorf("insert process log: %w", err)
	}

	log.URLsProcessed = nonNil(log.URLsProcessed)
	log.URLsFailed = nonNil(log.URLsFailed)
	log.URLsDuplicate = nonNil(log.URLsDuplicate)
	return log, nil
}

func (r *PostgresRepository) insertProcessLogQuery(log domain.ProcessLog) sq.InsertBuilder {
	details := jsonColumn[map[string]any]{}
	if log.ErrorDetails != nil {
		details = newJSONColumn(log.ErrorDetails)
	}
	return r.psql.Insert(processLogsTable).
		Columns(processLogColumns...).
		Values(
			log.ID,
			string(log.Type),
			string(log.Status),
			pq.StringArray(nonNil(log.URLsProcessed)),
			pq.StringArray(nonNil(log.URLsFailed)),
			pq.StringArray(nonNil(log.URLsDuplicate)),
			log.TotalURLs,
			log.SuccessCount,
			log.FailedCount,
			log.DuplicateCount,
			details,
			log.StartedAt,
			log.CompletedAt,
			log.CreatedAt,
			log.UpdatedAt,
		)
}

// CompleteProcessLog applies the terminal update. The completed_at IS NULL
// guard keeps it to exactly one per run.
func (r *PostgresRepository) CompleteProcessLog(ctx context.Context, processLogID string, outcome domain.ProcessOutcome) (domain.ProcessLog, error) {
	if err := r.ready(); err != nil {
		return domain.ProcessLog{}, err
	}
	if outcome.CompletedAt.IsZero() {
		outcome.CompletedAt = r.now()
	}

	query, args, err := r.completeProcessLogQuery(processLogID, outcome).ToSql()
	if err != nil {
		return domain.ProcessLog{}, fmt.Errorf("build complete process log: %w", err)
	}

	var row processLogRow
	err = r.db.GetContext(ctx, &row, query, args...)
	switch {
	case err == nil:
		return row.toDomain(), nil
	case isInvalidText(err):
		return domain.ProcessLog{}, fmt.Errorf("process log %s: %w", processLogID, domain.ErrNotFound)
	case !errors.Is(err, sql.ErrNoRows):
		return domain.ProcessLog{}, fmt.Errorf("complete process log: %w", err)
	}

	exists, err := r.processLogExists(ctx, processLogID)
	if err != nil {
		return domain.ProcessLog{}, err
	}
	if !exists {
		return domain.ProcessLog{}, fmt.Errorf("process log %s: %w", processLogID, domain.ErrNotFound)
	}
	return domain.ProcessLog{}, fmt.Errorf("process log %s: %w", processLogID, domain.ErrProcessLogClosed)
}

func (r *PostgresRepository) completeProcessLogQuery(id string, outcome domain.ProcessOutcome) sq.UpdateBuilder {
	details := jsonColumn[map[string]any]{}
	if outcome.ErrorDetails != nil {
		details = newJSONColumn(outcome.ErrorDetails)
	}
	return r.psql.Update(processLogsTable).
		SetMap(map[string]any{
			"status":          string(outcome.Status),
			"urls_processed":  pq.StringArray(nonNil(outcome.URLsProcessed)),
			"urls_failed":     pq.StringArray(nonNil(outcome.URLsFailed)),
			"urls_duplicate":  pq.StringArray(nonNil(outcome.URLsDuplicate)),
			"total_urls":      outcome.TotalURLs,
			"success_count":   outcome.SuccessCount,
			"failed_count":    outcome.FailedCount,
			"duplicate_count": outcome.DuplicateCount,
			"error_details":   details,
			"completed_at":    outcome.CompletedAt,
			"updated_at":      outcome.CompletedAt,
		}).
		Where(sq.Eq{"process_log_id": id, "completed_at": nil}).
		Suffix("RETURNING " + joinColumns(processLogColumns))
}

func (r *PostgresRepository) processLogExists(ctx context.Context, id string) (bool, error) {
	query, args, err := r.psql.Select("1").
		From(processLogsTable).
		Where(sq.Eq{"process_log_id": id}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build process log exists: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check process log: %w", err)
	}
	return exists, nil
}

// ListProcessLogs returns audit records, newest first.
func (r *PostgresRepository) ListProcessLogs(ctx context.Context, filter domain.ProcessLogFilter) ([]domain.ProcessLog, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	query, args, err := r.listProcessLogsQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list process logs: %w", err)
	}

	var rows []processLogRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list process logs: %w", err)
	}

	logs := make([]domain.ProcessLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.toDomain())
	}
	return logs, nil
}

func (r *PostgresRepository) listProcessLogsQuery(filter domain.ProcessLogFilter) sq.SelectBuilder {
	page := filter.Page.Normalize()
	q := r.psql.Select(processLogColumns...).From(processLogsTable)
	if filter.Type != "" {
		q = q.Where(sq.Eq{"process_type": string(filter.Type)})
	}
	return q.OrderBy("started_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
