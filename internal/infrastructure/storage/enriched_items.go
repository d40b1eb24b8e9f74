package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsPipeline/internal/domain"
)

var enrichedColumns = []string{
	"filtered_id", "raw_id", "original_details", "enriched_content",
	"category", "url", "approved_at", "created_at", "updated_at",
}

type enrichedItemRow struct {
	FilteredID      string                       `db:"filtered_id"`
	RawID           string                       `db:"raw_id"`
	OriginalDetails jsonColumn[domain.Candidate] `db:"original_details"`
	EnrichedContent jsonColumn[domain.Bit]       `db:"enriched_content"`
	Category        string                       `db:"category"`
	URL             string                       `db:"url"`
	ApprovedAt      time.Time                    `db:"approved_at"`
	CreatedAt       time.Time                    `db:"created_at"`
	UpdatedAt       time.Time                    `db:"updated_at"`
}

func (row enrichedItemRow) toDomain() domain.EnrichedItem {
	item := domain.EnrichedItem{
		ID:              row.FilteredID,
		RawID:           row.RawID,
		OriginalDetails: row.OriginalDetails.V,
		Category:        row.Category,
		URL:             row.URL,
		ApprovedAt:      row.ApprovedAt.UTC(),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.EnrichedContent.Valid {
		content := row.EnrichedContent.V
		item.EnrichedContent = &content
	}
	return item
}

// ApproveRaw flips the raw item to approved and inserts its enriched record in
// one transaction. The approved=false guard makes a concurrent second approval
// fail with domain.ErrAlreadyApproved instead of inserting twice.
func (r *PostgresRepository) ApproveRaw(ctx context.Context, item domain.EnrichedItem) (domain.EnrichedItem, error) {
	if err := r.ready(); err != nil {
		return domain.EnrichedItem{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := r.now()
	if item.ApprovedAt.IsZero() {
		item.ApprovedAt = now
	}
	item.CreatedAt, item.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("begin approve tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.psql.Update(rawItemsTable).
		Set("approved", true).
		Set("updated_at", now).
		Where(sq.Eq{"raw_id": item.RawID, "approved": false}).
		ToSql()
	if err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("build approve raw: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isInvalidText(err) {
			return domain.EnrichedItem{}, fmt.Errorf("raw item %s: %w", item.RawID, domain.ErrNotFound)
		}
		return domain.EnrichedItem{}, fmt.Errorf("approve raw item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("approve raw item: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetRaw(ctx, item.RawID); err != nil {
			return domain.EnrichedItem{}, err
		}
		return domain.EnrichedItem{}, fmt.Errorf("raw item %s: %w", item.RawID, domain.ErrAlreadyApproved)
	}

	query, args, err = r.insertEnrichedQuery(item).ToSql()
	if err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("build insert enriched: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.EnrichedItem{}, fmt.Errorf("%w: %s", domain.ErrDuplicateURL, item.URL)
		}
		return domain.EnrichedItem{}, fmt.Errorf("insert enriched item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("commit approve tx: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) insertEnrichedQuery(item domain.EnrichedItem) sq.InsertBuilder {
	content := jsonColumn[domain.Bit]{}
	if item.EnrichedContent != nil {
		content = newJSONColumn(*item.EnrichedContent)
	}
	return r.psql.Insert(enrichedTable).
		Columns(enrichedColumns...).
		Values(
			item.ID,
			item.RawID,
			newJSONColumn(item.OriginalDetails),
			content,
			item.Category,
			item.URL,
			item.ApprovedAt,
			item.CreatedAt,
			item.UpdatedAt,
		)
}

// GetEnriched loads one enriched item by id.
func (r *PostgresRepository) GetEnriched(ctx context.Context, filteredID string) (domain.EnrichedItem, error) {
	if err := r.ready(); err != nil {
		return domain.EnrichedItem{}, err
	}

	query, args, err := r.psql.Select(enrichedColumns...).
		From(enrichedTable).
		Where(sq.Eq{"filtered_id": filteredID}).
		ToSql()
	if err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("build get enriched: %w", err)
	}

	var row enrichedItemRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return domain.EnrichedItem{}, fmt.Errorf("enriched item %s: %w", filteredID, domain.ErrNotFound)
		}
		return domain.EnrichedItem{}, fmt.Errorf("get enriched item: %w", err)
	}
	return row.toDomain(), nil
}

// ListEnriched returns approved items, most recently approved first.
func (r *PostgresRepository) ListEnriched(ctx context.Context, page domain.Page) ([]domain.EnrichedItem, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	query, args, err := r.listEnrichedQuery(page).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list enriched: %w", err)
	}

	var rows []enrichedItemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list enriched items: %w", err)
	}

	items := make([]domain.EnrichedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

func (r *PostgresRepository) listEnrichedQuery(page domain.Page) sq.SelectBuilder {
	page = page.Normalize()
	return r.psql.Select(enrichedColumns...).
		From(enrichedTable).
		OrderBy("approved_at DESC", "created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))
}

// UpdateEnrichedContent overwrites enriched_content in place.
func (r *PostgresRepository) UpdateEnrichedContent(ctx context.Context, filteredID string, content domain.Bit) (domain.EnrichedItem, error) {
	if err := r.ready(); err != nil {
		return domain.EnrichedItem{}, err
	}

	query, args, err := r.psql.Update(enrichedTable).
		Set("enriched_content", newJSONColumn(content)).
		Set("updated_at", r.now()).
		Where(sq.Eq{"filtered_id": filteredID}).
		Suffix("RETURNING " + joinColumns(enrichedColumns)).
		ToSql()
	if err != nil {
		return domain.EnrichedItem{}, fmt.Errorf("build update enriched: %w", err)
	}

	var row enrichedItemRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return domain.EnrichedItem{}, fmt.Errorf("enriched item %s: %w", filteredID, domain.ErrNotFound)
		}
		return domain.EnrichedItem{}, fmt.Errorf("update enriched item: %w", err)
	}
	return row.toDomain(), nil
}
