package domain

import (
	"strings"
	"time"
)

// Product is a sellable item with its own public intake form.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubProduct is a priced package variant under a Product.
type SubProduct struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductInput is the body for creating or updating a product.
// Nil fields are left untouched on update.
type ProductInput struct {
	Name     *string `json:"name"`
	Slug     *string `json:"slug"`
	IsActive *bool   `json:"is_active"`
}

// SubProductInput is the body for creating or updating a sub product.
type SubProductInput struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	IsActive *bool    `json:"is_active"`
}

// GenerateSlug derives a URL slug from a product name: lowercase,
// keeping only ASCII letters and digits.
func GenerateSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateSlug checks a hand-written or generated slug. Hand-written slugs
// may also contain '-'. Names taken by console routes are rejected.
func ValidateSlug(slug string, reserved []string) error {
	if slug == "" {
		return &ErrValidation{Field: "slug", Message: "required"}
	}
	for _, r := range slug {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-' {
			return &ErrValidation{Field: "slug", Message: "only lowercase letters, digits and '-' are allowed"}
		}
	}
	for _, r := range reserved {
		if slug == r {
			return &ErrValidation{Field: "slug", Message: "reserved by the console: " + slug}
		}
	}
	return nil
}

// DefaultReservedSlugs are path segments owned by the console router.
var DefaultReservedSlugs = []string{
	"login", "logout", "me", "dashboard", "leads", "handle-customers",
	"analytics", "settings", "healthz", "readyz", "metrics", "ping", "404",
}
