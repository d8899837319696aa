package rating

import "time"

// Score bounds for a customer rating.
const (
	MinScore = 1
	MaxScore = 5
)

// Valid rating categories.
const (
	CategoryBilling   = "billing"
	CategoryTechnical = "technical"
	CategoryAccount   = "account"
	CategoryGeneral   = "general"
)

// Categories lists every valid rating category.
var Categories = []string{
	CategoryBilling,
	CategoryTechnical,
	CategoryAccount,
	CategoryGeneral,
}

// IsValidCategory reports whether c names a known rating category.
func IsValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Rating represents a single customer score for a support interaction.
type Rating struct {
	ID          int64     // ID is the unique identifier for the rating
	AgentID     int64     // AgentID is the rated agent
	Score       int       // Score is the customer's 1-5 rating
	Category    string    // Category is the support category of the interaction
	Comment     string    // Comment is optional free-form customer feedback
	CustomerRef string    // CustomerRef is an opaque caller-supplied customer identifier
	CreatedAt   time.Time // CreatedAt is when the rating was recorded
}
