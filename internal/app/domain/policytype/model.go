// Package policytype defines policy type records and the hierarchical
// taxonomy stored in their structure column.
package policytype

import "time"

// PolicyType is a category of insurance policy. Structure holds the full
// taxonomy forest; it has no identity outside its owning record.
type PolicyType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Structure   Forest    `json:"structure"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
