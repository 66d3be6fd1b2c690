package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CarRental          Category = "CAR_RENTAL"
	Resort             Category = "RESORT"
	FineDining         Category = "FINE_DINING"
	ConvenienceService Category = "CONVENIENCE_SERVICE"
)

// Categories lists every supported category in a stable order.
var Categories = []Category{CarRental, Resort, FineDining, ConvenienceService}

// ParseCategory accepts the enum value in any case, surrounding blanks ignored.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Fields is the flat, canonically typed field set of one category.
// A missing key means "not submitted"; a key holding nil means "cleared".
type Fields map[string]any

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-nil value.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

type MenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Category    Category  `json:"category"`
	BasePrice   *int      `json:"basePrice,omitempty"`
	Location    Fields    `json:"location,omitempty"`
	Details     Fields    `json:"details"` // category fields
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
