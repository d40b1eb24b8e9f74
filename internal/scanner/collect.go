package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"NewsPipeline/internal/domain"
)

// Lister is the two-step fetch protocol shared by HTML and feed sources:
// List returns shallow candidates, Detail fills in content and thumbnail.
type Lister interface {
	List(ctx context.Context, req Request) ([]domain.Candidate, error)
	Detail(ctx context.Context, candidate domain.Candidate) (domain.Candidate, error)
}

// Collect runs the list step, drops urls already seen during this run, caps the
// result at req.Limit and runs the detail step per candidate. A failed detail
// drops that candidate only; a failed list fails the whole source.
func Collect(ctx context.Context, lister Lister, req Request, logger *slog.Logger) ([]domain.Candidate, error) {
	listed, err := lister.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	seen := make(map[string]struct{}, len(listed))
	shallow := make([]domain.Candidate, 0, len(listed))
	for _, candidate := range listed {
		if req.Limit > 0 && len(shallow) >= req.Limit {
			break
		}
		if _, ok := seen[candidate.URL]; ok {
			continue
		}
		seen[candidate.URL] = struct{}{}
		shallow = append(shallow, candidate)
	}

	debug(logger, "list step done", "listed", len(listed), "kept", len(shallow), "today_only", req.TodayOnly)

	results := make([]domain.Candidate, 0, len(shallow))
	for _, candidate := range shallow {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		full, err := lister.Detail(ctx, candidate)
		if err != nil {
			if logger != nil {
				logger.Warn("detail step failed, dropping candidate", "url", candidate.URL, "error", err)
			}
			continue
		}
		results = append(results, full)
	}

	return results, nil
}

func debug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
