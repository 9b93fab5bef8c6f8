package models

import (
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
)

// leadStatusRank orders the lifecycle; the inbound pipeline may only move a
// lead forward. Operator edits are free to set any status.
var leadStatusRank = map[LeadStatus]int{
	LeadStatusNew:       0,
	LeadStatusContacted: 1,
	LeadStatusQualified: 2,
	LeadStatusConverted: 3,
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s LeadStatus) IsValid() bool {
	_, ok := leadStatusRank[s]
	return ok
}

// IsForwardOf reports whether s is strictly later in the lifecycle than other.
func (s LeadStatus) IsForwardOf(other LeadStatus) bool {
	return leadStatusRank[s] > leadStatusRank[other]
}

type Lead struct {
	ID               string     `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	PhoneNumber      string     `json:"phoneNumber" db:"phone_number"`
	Email            string     `json:"email" db:"email"`
	Status           LeadStatus `json:"status" db:"status"`
	PropertyInterest string     `json:"propertyInterest,omitempty" db:"property_interest"`
	Notes            string     `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}
