package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	Active   ProductStatus = "Active"
	Inactive ProductStatus = "Inactive"
)

// ParseProductStatus is strict: anything other than a known status is an error.
func ParseProductStatus(s string) (ProductStatus, error) {
	switch ProductStatus(s) {
	case Active, Inactive:
		return ProductStatus(s), nil
	}
	return "", fmt.Errorf("unknown product status %q", s)
}

func (s ProductStatus) Value() (driver.Value, error) {
	if _, err := ParseProductStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

func (s *ProductStatus) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into product status", src)
	}

	status, err := ParseProductStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// UnmarshalJSON accepts an empty string so callers can fall back to Active.
func (s *ProductStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}

	status, err := ParseProductStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// Product.CreatedAt is owned by the server. Updates never write it.
type Product struct {
	ID         int             `json:"id" gorm:"primaryKey"`
	Name       string          `json:"name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(18,2);not null"`
	Status     ProductStatus   `json:"status" gorm:"type:varchar(20);not null"`
	RowVersion []byte          `json:"row_version" gorm:"type:bytea;not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
	CategoryID int             `json:"category_id" gorm:"not null;index" binding:"required"`
	Category   *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// ProductSummary is the payload of the minimal products listing.
type ProductSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
