package ranking

// Entry is one row of a leaderboard, ordered best average first.
type Entry struct {
	Rank         int64   // Rank is the 1-based position in the leaderboard
	AgentID      int64   // AgentID is the ranked agent
	AverageScore float64 // AverageScore is the running mean score in the window
	RatingCount  int64   // RatingCount is the number of ratings in the window
}
