package models

import (
	"time"
)

type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusPending   PropertyStatus = "pending"
	PropertyStatusSold      PropertyStatus = "sold"
)

func (s PropertyStatus) IsValid() bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusPending, PropertyStatusSold:
		return true
	}
	return false
}

type Property struct {
	ID            string         `json:"id" db:"id"`
	Address       string         `json:"address" db:"address"`
	City          string         `json:"city" db:"city"`
	State         string         `json:"state" db:"state"`
	ZipCode       string         `json:"zipCode" db:"zip_code"`
	Price         float64        `json:"price" db:"price"`
	Bedrooms      int            `json:"bedrooms" db:"bedrooms"`
	Bathrooms     float64        `json:"bathrooms" db:"bathrooms"`
	SquareFootage int            `json:"squareFootage" db:"square_footage"`
	Description   string         `json:"description,omitempty" db:"description"`
	Status        PropertyStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at"`
}
