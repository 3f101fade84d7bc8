// Package models holds the database rows written by the seeder
package models

const (
	// DefaultLimit is the max number of rows returned by a list call
	DefaultLimit = 50
)

// ListOptions represents pagination options for list operations
type ListOptions struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// All returns one zero value of every model, in migration order
func All() []interface{} {
	return []interface{}{
		&Client{},
		&Agreement{},
		&AuditEvent{},
	}
}
