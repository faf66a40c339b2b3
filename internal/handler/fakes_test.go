package handler_test

import (
	"context"
	"errors"
	"sync"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"github.com/google/uuid"
)

// backend is an in-memory stand-in for every store port the router needs.
type backend struct {
	mu       sync.Mutex
	products []*domain.Product
	subs     []*domain.SubProduct
	leads    []*domain.Lead
	admins   []*domain.Admin

	writeErr error
	// sessions maps email to the user id the identity provider signs in.
	sessions map[string]string
	pingErr  error
}

func newBackend() *backend {
	return &backend{sessions: map[string]string{}}
}

func (b *backend) Ping(context.Context) error { return b.pingErr }

func (b *backend) ListProducts(context.Context) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range b.products {
		out = append(out, *p)
	}
	return out, nil
}

func (b *backend) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range b.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (b *backend) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, p := range b.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (b *backend) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	p.ID = uuid.NewString()
	b.products = append(b.products, p)
	return p, nil
}

func (b *backend) UpdateProduct(context.Context, string, domain.ProductInput) error { return nil }
func (b *backend) DeleteProduct(context.Context, string) error                      { return nil }

func (b *backend) ListSubProducts(_ context.Context, productID string, activeOnly bool) ([]domain.SubProduct, error) {
	var out []domain.SubProduct
	for _, sp := range b.subs {
		if sp.ProductID == productID && (!activeOnly || sp.IsActive) {
			out = append(out, *sp)
		}
	}
	return out, nil
}

func (b *backend) GetSubProduct(_ context.Context, id string) (*domain.SubProduct, error) {
	for _, sp := range b.subs {
		if sp.ID == id {
			cp := *sp
			return &cp, nil
		}
	}
	return nil, nil
}

func (b *backend) CreateSubProduct(_ context.Context, sp *domain.SubProduct) (*domain.SubProduct, error) {
	sp.ID = uuid.NewString()
	b.subs = append(b.subs, sp)
	return sp, nil
}

func (b *backend) UpdateSubProduct(context.Context, string, domain.SubProductInput) error { return nil }
func (b *backend) DeleteSubProduct(context.Context, string) error                         { return nil }

func (b *backend) ListLeads(context.Context) ([]domain.Lead, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Lead
	for _, l := range b.leads {
		out = append(out, *l)
	}
	return out, nil
}

func (b *backend) ListRecentLeads(ctx context.Context, _ int) ([]domain.Lead, error) {
	return b.ListLeads(ctx)
}

func (b *backend) GetLead(_ context.Context, id string) (*domain.Lead, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.leads {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (b *backend) CreateLead(_ context.Context, in *domain.NewLead) (*domain.Lead, error) {
	if b.writeErr != nil {
		return nil, b.writeErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subID := in.SubProductID
	l := &domain.Lead{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Phone:        in.Phone,
		Source:       in.Source,
		ProductID:    in.ProductID,
		SubProductID: &subID,
		Stage:        domain.StageOnProgress,
	}
	b.leads = append(b.leads, l)
	return l, nil
}

func (b *backend) UpdateLead(_ context.Context, l *domain.Lead) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cur := range b.leads {
		if cur.ID == l.ID {
			cp := *l
			b.leads[i] = &cp
			return nil
		}
	}
	return errors.New("no such lead")
}

func (b *backend) ListAdmins(context.Context) ([]domain.Admin, error) {
	var out []domain.Admin
	for _, a := range b.admins {
		out = append(out, *a)
	}
	return out, nil
}

func (b *backend) GetAdmin(_ context.Context, id string) (*domain.Admin, error) {
	for _, a := range b.admins {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (b *backend) CreateAdmin(_ context.Context, a *domain.Admin) (*domain.Admin, error) {
	b.admins = append(b.admins, a)
	return a, nil
}

func (b *backend) UpdateAdmin(context.Context, string, domain.AdminInput) error { return nil }

func (b *backend) WriteAdminTotals(context.Context, map[string]domain.AdminTotals) error {
	return b.writeErr
}

func (b *backend) ListHandleCustomers(context.Context) ([]domain.HandleCustomer, error) {
	return nil, nil
}

func (b *backend) GetHandleCustomer(context.Context, string) (*domain.HandleCustomer, error) {
	return nil, nil
}

func (b *backend) GetHandleCustomerByLead(context.Context, string) (*domain.HandleCustomer, error) {
	return nil, nil
}

func (b *backend) CreateHandleCustomer(_ context.Context, hc *domain.HandleCustomer) (*domain.HandleCustomer, error) {
	hc.ID = uuid.NewString()
	return hc, nil
}

func (b *backend) UpdateHandleCustomer(context.Context, *domain.HandleCustomer) error { return nil }

func (b *backend) ListTargets(context.Context, int, int) ([]domain.AdminTarget, error) {
	return nil, nil
}

func (b *backend) GetTarget(context.Context, string) (*domain.AdminTarget, error) { return nil, nil }

func (b *backend) CreateTarget(_ context.Context, t *domain.AdminTarget) (*domain.AdminTarget, error) {
	return t, nil
}

func (b *backend) UpdateTarget(context.Context, string, domain.TargetInput) error { return nil }
func (b *backend) DeleteTarget(context.Context, string) error                     { return nil }

func (b *backend) SignInWithPassword(_ context.Context, email, _ string) (*domain.AuthSession, error) {
	id, ok := b.sessions[email]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.AuthSession{UserID: id, Email: email, AccessToken: "gotrue-" + id}, nil
}

func (b *backend) SignUp(_ context.Context, email, _ string) (*domain.AuthUser, error) {
	return &domain.AuthUser{ID: uuid.NewString(), Email: email}, nil
}

func (b *backend) SignOut(context.Context, string) error { return nil }

func (b *backend) addAdmin(name string, role domain.Role) *domain.Admin {
	a := &domain.Admin{ID: uuid.NewString(), Name: name, Email: name + "@example.com", Role: role, IsActive: true}
	b.admins = append(b.admins, a)
	b.sessions[a.Email] = a.ID
	return a
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, *domain.LeadNotification) {}
