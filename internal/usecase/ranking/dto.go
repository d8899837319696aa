package ranking

// OverallRequest represents the request payload for the all-time leaderboard.
type OverallRequest struct {
	Limit int
}

// WeeklyRequest represents the request payload for a weekly leaderboard.
// An empty Week selects the current ISO week.
type WeeklyRequest struct {
	Week  string
	Limit int
}

// MonthlyRequest represents the request payload for a monthly leaderboard.
// An empty Month selects the current month.
type MonthlyRequest struct {
	Month string
	Limit int
}

// CategoryRequest represents the request payload for a category leaderboard.
type CategoryRequest struct {
	Category string
	Limit    int
}

// Entry represents one leaderboard row DTO for API responses.
type Entry struct {
	Rank         int64
	AgentID      int64
	AverageScore float64
	RatingCount  int64
}

// TopResponse represents a leaderboard read. Window carries the canonical
// window label, e.g. "overall" or "week:2026-W35".
type TopResponse struct {
	Window  string
	Entries []Entry
}

// RebuildResponse lists the window labels that were rebuilt from the database.
type RebuildResponse struct {
	Windows []string
}
