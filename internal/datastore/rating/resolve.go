package rating

// Vote is one AI model's rating for an image. Only the model's most recent
// row should be passed; MajorityVote does not deduplicate by model.
type Vote struct {
	ModelID uint
	Rating  Rating
}

// Tally is the number of votes a rating received
type Tally struct {
	Rating Rating
	Votes  int
}

// Resolution is the outcome of arbitrating manual and AI ratings for one image
type Resolution struct {
	Manual    Rating  // latest manual rating, Unrated when none
	AI        Rating  // majority of AI votes, Unrated when none
	Effective Rating  // Manual when present, otherwise AI
	Tallies   []Tally // AI vote counts in ascending severity, zero counts omitted
}

// MajorityVote returns the rating with the most votes. Ties go to the more
// severe rating so NSFW exclusion errs on the side of caution. Votes for
// values outside the vocabulary are ignored. Returns Unrated when no valid
// votes remain.
func MajorityVote(votes []Vote) Rating {
	winner, _ := tally(votes)
	return winner
}

func tally(votes []Vote) (Rating, []Tally) {
	counts := make([]int, len(vocabulary))
	for _, v := range votes {
		if s := Severity(v.Rating); s > 0 {
			counts[s-1]++
		}
	}

	winner := Unrated
	best := 0
	var tallies []Tally
	for i, n := range counts {
		if n == 0 {
			continue
		}
		tallies = append(tallies, Tally{Rating: vocabulary[i], Votes: n})
		// ascending severity: >= lets the more severe bucket win ties
		if n >= best {
			best = n
			winner = vocabulary[i]
		}
	}
	return winner, tallies
}

// Resolve applies the manual-over-AI priority rule. manual is the latest
// manual rating or Unrated.
func Resolve(manual Rating, votes []Vote) Resolution {
	ai, tallies := tally(votes)
	res := Resolution{
		Manual:    Unrated,
		AI:        ai,
		Effective: ai,
		Tallies:   tallies,
	}
	if manual.Valid() {
		res.Manual = manual
		res.Effective = manual
	}
	return res
}
