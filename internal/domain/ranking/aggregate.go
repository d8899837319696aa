package ranking

// Aggregate is the per-agent source row a leaderboard window is built
// from: the exact score sum and count, as aggregated from storage.
type Aggregate struct {
	AgentID  int64 // AgentID is the agent the row belongs to
	ScoreSum int64 // ScoreSum is the exact sum of scores in the window
	Count    int64 // Count is the number of ratings in the window
}

// Average returns the mean score of the aggregate.
func (a Aggregate) Average() float64 {
	if a.Count == 0 {
		return 0
	}
	return float64(a.ScoreSum) / float64(a.Count)
}

// ToEntries converts ordered aggregates into leaderboard entries,
// assigning 1-based ranks in slice order.
func ToEntries(aggs []Aggregate) []Entry {
	entries := make([]Entry, len(aggs))
	for i, a := range aggs {
		entries[i] = Entry{
			Rank:         int64(i + 1),
			AgentID:      a.AgentID,
			AverageScore: a.Average(),
			RatingCount:  a.Count,
		}
	}
	return entries
}
