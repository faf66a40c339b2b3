// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/lead-console-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// ProductStore persists products and their sub products.
// Single-row getters return (nil, nil) when the row does not exist.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in domain.ProductInput) error
	DeleteProduct(ctx context.Context, id string) error

	// ListSubProducts returns sub products ordered by ascending price.
	ListSubProducts(ctx context.Context, productID string, activeOnly bool) ([]domain.SubProduct, error)
	GetSubProduct(ctx context.Context, id string) (*domain.SubProduct, error)
	CreateSubProduct(ctx context.Context, sp *domain.SubProduct) (*domain.SubProduct, error)
	UpdateSubProduct(ctx context.Context, id string, in domain.SubProductInput) error
	DeleteSubProduct(ctx context.Context, id string) error
}

// LeadStore persists leads. Reads join product, sub product and admin.
type LeadStore interface {
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	ListRecentLeads(ctx context.Context, limit int) ([]domain.Lead, error)
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
	CreateLead(ctx context.Context, in *domain.NewLead) (*domain.Lead, error)
	// UpdateLead writes every mutable column of l. Last writer wins.
	UpdateLead(ctx context.Context, l *domain.Lead) error
}

// AdminStore persists staff records.
type AdminStore interface {
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
	GetAdmin(ctx context.Context, id string) (*domain.Admin, error)
	CreateAdmin(ctx context.Context, a *domain.Admin) (*domain.Admin, error)
	UpdateAdmin(ctx context.Context, id string, in domain.AdminInput) error
}

// AdminTotalsWriter overwrites the denormalized admin totals.
type AdminTotalsWriter interface {
	WriteAdminTotals(ctx context.Context, totals map[string]domain.AdminTotals) error
}

// HandleCustomerStore persists post-closing follow-up records.
type HandleCustomerStore interface {
	ListHandleCustomers(ctx context.Context) ([]domain.HandleCustomer, error)
	GetHandleCustomer(ctx context.Context, id string) (*domain.HandleCustomer, error)
	GetHandleCustomerByLead(ctx context.Context, leadID string) (*domain.HandleCustomer, error)
	CreateHandleCustomer(ctx context.Context, hc *domain.HandleCustomer) (*domain.HandleCustomer, error)
	UpdateHandleCustomer(ctx context.Context, hc *domain.HandleCustomer) error
}

// TargetStore persists monthly admin targets.
type TargetStore interface {
	// ListTargets filters by month and year when both are non-zero.
	ListTargets(ctx context.Context, month, year int) ([]domain.AdminTarget, error)
	GetTarget(ctx context.Context, id string) (*domain.AdminTarget, error)
	CreateTarget(ctx context.Context, t *domain.AdminTarget) (*domain.AdminTarget, error)
	UpdateTarget(ctx context.Context, id string, in domain.TargetInput) error
	DeleteTarget(ctx context.Context, id string) error
}

// IdentityProvider is the managed auth subsystem.
type IdentityProvider interface {
	// SignInWithPassword returns domain.ErrInvalidCredentials on a bad
	// email/password pair.
	SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error)
	SignUp(ctx context.Context, email, password string) (*domain.AuthUser, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Messenger sends a text message to a phone number.
type Messenger interface {
	Send(ctx context.Context, number, text string) error
}

// NotificationPublisher hands a lead notification to a delivery mechanism.
type NotificationPublisher interface {
	Publish(ctx context.Context, n *domain.LeadNotification) error
}
