package agent

import "time"

// Agent represents a customer support agent being rated.
type Agent struct {
	ID        int64     // ID is the unique identifier for the agent
	Name      string    // Name is the agent's display name
	Email     string    // Email is the agent's unique email address
	Team      string    // Team is the support team the agent belongs to
	Active    bool      // Active marks whether the agent currently handles tickets
	CreatedAt time.Time // CreatedAt is when the agent was registered
	UpdatedAt time.Time // UpdatedAt is when the agent was last modified
}
