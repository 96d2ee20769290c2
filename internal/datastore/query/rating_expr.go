package query

import (
	"github.com/tphakala/imagecurator/internal/datastore/rating"
)

// manualSeveritySQL yields the severity of the most recent manual rating of
// the outer image, NULL when there is none.
const manualSeveritySQL = `(SELECT mr.severity FROM ratings mr ` +
	`WHERE mr.image_id = images.id AND mr.model_id IS NULL ` +
	`ORDER BY mr.id DESC LIMIT 1)`

// aiSeveritySQL yields the majority-vote severity over the most recent rating
// of each AI model for the outer image, NULL when there are no AI ratings.
// Ties go to the higher severity.
const aiSeveritySQL = `(SELECT ar.severity FROM ratings ar ` +
	`WHERE ar.image_id = images.id AND ar.model_id IS NOT NULL ` +
	`AND ar.id IN (SELECT MAX(lr.id) FROM ratings lr ` +
	`WHERE lr.image_id = images.id AND lr.model_id IS NOT NULL GROUP BY lr.model_id) ` +
	`GROUP BY ar.severity ORDER BY COUNT(*) DESC, ar.severity DESC LIMIT 1)`

// resolvedSeveritySQL applies manual-over-AI priority, 0 when unrated.
const resolvedSeveritySQL = `COALESCE(` + manualSeveritySQL + `, ` + aiSeveritySQL + `, 0)`

// HasManualRating matches images with at least one manual rating row
func HasManualRating() Expr {
	return Exists("ratings", "r", Raw("r.image_id = images.id AND r.model_id IS NULL"))
}

// HasAIRating matches images with at least one AI rating row
func HasAIRating() Expr {
	return Exists("ratings", "r", Raw("r.image_id = images.id AND r.model_id IS NOT NULL"))
}

// ManualRatingIs matches images whose latest manual rating is r. Unrated
// matches images with no manual rating rows.
func ManualRatingIs(r rating.Rating) Expr {
	if r == rating.Unrated {
		return Not(HasManualRating())
	}
	return Compare(manualSeveritySQL, Eq, rating.Severity(r))
}

// AIRatingIs matches images whose AI majority rating is r. Unrated matches
// images with no AI rating rows.
func AIRatingIs(r rating.Rating) Expr {
	if r == rating.Unrated {
		return NotExists("ratings", "r", Raw("r.image_id = images.id AND r.model_id IS NOT NULL"))
	}
	return Compare(aiSeveritySQL, Eq, rating.Severity(r))
}

// BelowThreshold matches images whose resolved rating is below threshold.
// Unrated images always match.
func BelowThreshold(threshold rating.Rating) Expr {
	return Compare(resolvedSeveritySQL, Lt, rating.Severity(threshold))
}
