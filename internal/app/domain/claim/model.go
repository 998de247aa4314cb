// Package claim defines insurance claim records.
package claim

import "time"

// Status tracks a claim through its lifecycle.
type Status string

const (
	StatusFiled    Status = "filed"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSettled  Status = "settled"
)

// Valid reports whether s is a known claim status.
func (s Status) Valid() bool {
	switch s {
	case StatusFiled, StatusReview, StatusApproved, StatusRejected, StatusSettled:
		return true
	}
	return false
}

// Claim links a customer, a handling employee and a policy type.
type Claim struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	EmployeeID   string    `json:"employee_id,omitempty"`
	PolicyTypeID string    `json:"policy_type_id"`
	Status       Status    `json:"status"`
	Amount       float64   `json:"amount"`
	Description  string    `json:"description,omitempty"`
	FiledAt      time.Time `json:"filed_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Filter narrows claim listings.
type Filter struct {
	CustomerID   string
	PolicyTypeID string
	Status       Status
}
