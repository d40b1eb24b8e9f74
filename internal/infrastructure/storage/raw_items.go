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

var rawColumns = []string{
	"raw_id", "url", "category", "details", "published_date",
	"approved", "published", "created_at", "updated_at",
}

type rawItemRow struct {
	RawID         string                       `db:"raw_id"`
	URL           string                       `db:"url"`
	Category      string                       `db:"category"`
	Details       jsonColumn[domain.Candidate] `db:"details"`
	PublishedDate time.Time                    `db:"published_date"`
	Approved      bool                         `db:"approved"`
	Published     bool                         `db:"published"`
	CreatedAt     time.Time                    `db:"created_at"`
	UpdatedAt     time.Time                    `db:"updated_at"`
}

func (row rawItemRow) toDomain() domain.RawItem {
	return domain.RawItem{
		ID:            row.RawID,
		URL:           row.URL,
		Category:      row.Category,
		Details:       row.Details.V,
		PublishedDate: row.PublishedDate.UTC(),
		Approved:      row.Approved,
		Published:     row.Published,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

// InsertRaw stores a new pending item. The url unique constraint decides
// duplicates: a conflicting row yields domain.ErrDuplicateURL and no mutation.
func (r *PostgresRepository) InsertRaw(ctx context.Context, item domain.RawItem) (domain.RawItem, error) {
	if err := r.ready(); err != nil {
		return domain.RawItem{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := r.now()
	if item.PublishedDate.IsZero() {
		item.PublishedDate = now
	}
	item.Approved, item.Published = false, false
	item.CreatedAt, item.UpdatedAt = now, now

	query, args, err := r.insertRawQuery(item).ToSql()
	if err != nil {
		return domain.RawItem{}, fmt.Errorf("build insert raw: %w", err)
	}

	var returnedID string
	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&returnedID)
	switch {
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return domain.RawItem{}, fmt.Errorf("%w: %s", domain.ErrDuplicateURL, item.URL)
	case err != nil:
		return domain.RawItem{}, fmt.Errorf("insert raw item: %w", err)
	}

	item.ID = returnedID
	return item, nil
}

func (r *PostgresRepository) insertRawQuery(item domain.RawItem) sq.InsertBuilder {
	return r.psql.Insert(rawItemsTable).
		Columns(rawColumns...).
		Values(
			item.ID,
			item.URL,
			item.Category,
			newJSONColumn(item.Details),
			item.PublishedDate,
			item.Approved,
			item.Published,
			item.CreatedAt,
			item.UpdatedAt,
		).
		Suffix("ON CONFLICT (url) DO NOTHING RETURNING raw_id")
}

// GetRaw loads one item by id.
func (r *PostgresRepository) GetRaw(ctx context.Context, rawID string) (domain.RawItem, error) {
	if err := r.ready(); err != nil {
		return domain.RawItem{}, err
	}

	query, args, err := r.psql.Select(rawColumns...).
		From(rawItemsTable).
		Where(sq.Eq{"raw_id": rawID}).
		ToSql()
	if err != nil {
		return domain.RawItem{}, fmt.Errorf("build get raw: %w", err)
	}

	var row rawItemRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return domain.RawItem{}, fmt.Errorf("raw item %s: %w", rawID, domain.ErrNotFound)
		}
		return domain.RawItem{}, fmt.Errorf("get raw item: %w", err)
	}
	return row.toDomain(), nil
}

// ListRaw returns items matching filter, newest publishedDate first.
func (r *PostgresRepository) ListRaw(ctx context.Context, filter domain.RawFilter) ([]domain.RawItem, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	query, args, err := r.listRawQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list raw: %w", err)
	}

	var rows []rawItemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list raw items: %w", err)
	}

	items := make([]domain.RawItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

func (r *PostgresRepository) listRawQuery(filter domain.RawFilter) sq.SelectBuilder {
	page := filter.Page.Normalize()
	q := r.psql.Select(rawColumns...).From(rawItemsTable)
	if filter.Approved != nil {
		q = q.Where(sq.Eq{"approved": *filter.Approved})
	}
	if filter.Published != nil {
		q = q.Where(sq.Eq{"published": *filter.Published})
	}
	return q.OrderBy("published_date DESC", "created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))
}

// DeletePendingRaw removes an item that has not been approved yet.
func (r *PostgresRepository) DeletePendingRaw(ctx context.Context, rawID string) error {
	if err := r.ready(); err != nil {
		return err
	}

	query, args, err := r.psql.Delete(rawItemsTable).
		Where(sq.Eq{"raw_id": rawID, "approved": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete raw: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isInvalidText(err) {
			return fmt.Errorf("raw item %s: %w", rawID, domain.ErrNotFound)
		}
		return fmt.Errorf("delete raw item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete raw item: %w", err)
	}
	if affected > 0 {
		return nil
	}

	if _, err := r.GetRaw(ctx, rawID); err != nil {
		return err
	}
	return fmt.Errorf("raw item %s: %w", rawID, domain.ErrAlreadyApproved)
}

// MarkPublished flips published=true on the item.
func (r *PostgresRepository) MarkPublished(ctx context.Context, rawID string) error {
	if err := r.ready(); err != nil {
		return err
	}

	query, args, err := r.psql.Update(rawItemsTable).
		Set("published", true).
		Set("updated_at", r.now()).
		Where(sq.Eq{"raw_id": rawID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark published: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isInvalidText(err) {
			return fmt.Errorf("raw item %s: %w", rawID, domain.ErrNotFound)
		}
		return fmt.Errorf("mark published: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("raw item %s: %w", rawID, domain.ErrNotFound)
	}
	return nil
}
