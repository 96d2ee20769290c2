package curator

import (
	"context"
)

const statsQuery = `SELECT
	(SELECT COUNT(*) FROM images) AS images,
	(SELECT COUNT(*) FROM processed_images) AS renditions,
	(SELECT COUNT(*) FROM tags) AS tags,
	(SELECT COUNT(*) FROM captions) AS captions,
	(SELECT COUNT(*) FROM scores) AS scores,
	(SELECT COUNT(*) FROM ratings) AS ratings`

const formatsQuery = `SELECT format, COUNT(*) AS images FROM images GROUP BY format ORDER BY format`

// Stats summarizes catalog contents
type Stats struct {
	Images     int64
	Renditions int64
	Tags       int64
	Captions   int64
	Scores     int64
	Ratings    int64
	Formats    []FormatCount // ordered by format name
}

// FormatCount is the number of originals stored in one format.
type FormatCount struct {
	Format string
	Images int64
}

// Stats returns row counts for every catalog table and the originals per
// format.
func (c *Curator) Stats(ctx context.Context) (*Stats, error) {
	row, err := c.manager.FetchOne(ctx, statsQuery)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	if row != nil {
		stats.Images = row.Int64("images")
		stats.Renditions = row.Int64("renditions")
		stats.Tags = row.Int64("tags")
		stats.Captions = row.Int64("captions")
		stats.Scores = row.Int64("scores")
		stats.Ratings = row.Int64("ratings")
	}

	rows, err := c.manager.FetchAll(ctx, formatsQuery)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.Formats = append(stats.Formats, FormatCount{
			Format: r.String("format"),
			Images: r.Int64("images"),
		})
	}
	return stats, nil
}
