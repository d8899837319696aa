package rating

// CategoryStats aggregates ratings of one category for an agent.
type CategoryStats struct {
	RatingCount  int64   // RatingCount is the number of ratings in this category
	AverageScore float64 // AverageScore is the mean score in this category
}

// AgentStats aggregates every rating recorded for one agent.
type AgentStats struct {
	AgentID      int64                    // AgentID is the agent the stats belong to
	RatingCount  int64                    // RatingCount is the total number of ratings
	AverageScore float64                  // AverageScore is the mean score across all ratings
	ScoreCounts  map[int]int64            // ScoreCounts maps each score value to its occurrences
	Categories   map[string]CategoryStats // Categories breaks the stats down per category
}
