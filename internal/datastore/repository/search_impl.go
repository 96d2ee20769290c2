package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tphakala/imagecurator/internal/datastore/query"
	"github.com/tphakala/imagecurator/internal/logger"
	"github.com/tphakala/imagecurator/internal/observability/metrics"
)

// searchType labels search metrics by the most selective axis used.
func searchType(c *query.Criteria) string {
	switch {
	case c == nil:
		return "all"
	case c.Tags != nil:
		return "tags"
	case c.Caption != "":
		return "caption"
	case c.ManualRating != "" || c.AIRating != "":
		return "rating"
	default:
		return "filter"
	}
}

// GetImagesByFilter compiles the criteria and runs the page and count
// queries over the same predicate.
func (r *imageRepository) GetImagesByFilter(ctx context.Context, criteria *query.Criteria) (*SearchResult, error) {
	kind := searchType(criteria)
	start := time.Now()

	plan, err := query.Compile(criteria, r.search)
	if errors.Is(err, query.ErrEmptyTagList) {
		r.log.Debug("empty tag list, returning no results")
		r.metrics.RecordSearchOperation(kind, metrics.StatusSuccess)
		return &SearchResult{}, nil
	}
	if err != nil {
		r.metrics.RecordSearchOperation(kind, metrics.StatusError)
		return nil, err
	}

	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Raw(plan.CountSQL, plan.CountArgs...).Scan(&total).Error; err != nil {
		r.metrics.RecordSearchOperation(kind, metrics.StatusError)
		return nil, dbError(err, "search_count")
	}

	ids := []uint{}
	if total > int64(plan.Offset) {
		if err := db.Raw(plan.PageSQL, plan.PageArgs...).Scan(&ids).Error; err != nil {
			r.metrics.RecordSearchOperation(kind, metrics.StatusError)
			return nil, dbError(err, "search_page")
		}
	}

	elapsed := time.Since(start)
	r.metrics.RecordSearchOperation(kind, metrics.StatusSuccess)
	r.metrics.RecordSearchDuration(kind, elapsed.Seconds())
	r.metrics.RecordSearchResultSize(kind, len(ids))
	r.log.Debug("search completed",
		logger.String("search_type", kind),
		logger.Int("page_size", len(ids)),
		logger.Int64("total", total),
		logger.Duration("duration", elapsed))

	return &SearchResult{
		IDs:    ids,
		Total:  total,
		Limit:  plan.Limit,
		Offset: plan.Offset,
	}, nil
}
