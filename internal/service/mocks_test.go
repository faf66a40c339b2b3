package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
)

// --- Mocks ---

// memStore is an in-memory backend implementing every store port.
type memStore struct {
	mu        sync.Mutex
	seq       int
	products  map[string]*domain.Product
	subs      map[string]*domain.SubProduct
	leads     []*domain.Lead
	admins    []*domain.Admin
	customers []*domain.HandleCustomer
	targets   []*domain.AdminTarget

	readErr  error
	writeErr error
	totals   map[string]domain.AdminTotals
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]*domain.Product{},
		subs:     map[string]*domain.SubProduct{},
	}
}

// id returns sequential uuid-shaped keys, matching what Supabase hands out.
func (m *memStore) id() string {
	m.seq++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", m.seq)
}

func (m *memStore) addProduct(name, slug string, active bool) *domain.Product {
	p := &domain.Product{ID: m.id(), Name: name, Slug: slug, IsActive: active}
	m.products[p.ID] = p
	return p
}

func (m *memStore) addSub(productID, name string, price float64, active bool) *domain.SubProduct {
	sp := &domain.SubProduct{ID: m.id(), ProductID: productID, Name: name, Price: price, IsActive: active}
	m.subs[sp.ID] = sp
	return sp
}

func (m *memStore) addAdmin(name string, role domain.Role, active bool) *domain.Admin {
	a := &domain.Admin{ID: m.id(), Name: name, Email: name + "@example.com", Role: role, IsActive: active}
	m.admins = append(m.admins, a)
	return a
}

func (m *memStore) addLead(l domain.Lead) *domain.Lead {
	if l.ID == "" {
		l.ID = m.id()
	}
	if l.Stage == "" {
		l.Stage = domain.StageOnProgress
	}
	m.leads = append(m.leads, &l)
	return &l
}

// ProductStore

func (m *memStore) ListProducts(context.Context) ([]domain.Product, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if p, ok := m.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return nil, &domain.ErrConflict{Message: "product already exists"}
		}
	}
	cp := *p
	cp.ID = m.id()
	m.products[cp.ID] = &cp
	return &cp, nil
}

func (m *memStore) UpdateProduct(_ context.Context, id string, in domain.ProductInput) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	p := m.products[id]
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Slug != nil {
		p.Slug = *in.Slug
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) ListSubProducts(_ context.Context, productID string, activeOnly bool) ([]domain.SubProduct, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []domain.SubProduct
	for _, sp := range m.subs {
		if sp.ProductID == productID && (!activeOnly || sp.IsActive) {
			out = append(out, *sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (m *memStore) GetSubProduct(_ context.Context, id string) (*domain.SubProduct, error) {
	if sp, ok := m.subs[id]; ok {
		cp := *sp
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) CreateSubProduct(_ context.Context, sp *domain.SubProduct) (*domain.SubProduct, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	cp := *sp
	cp.ID = m.id()
	m.subs[cp.ID] = &cp
	return &cp, nil
}

func (m *memStore) UpdateSubProduct(_ context.Context, id string, in domain.SubProductInput) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	sp := m.subs[id]
	if in.Name != nil {
		sp.Name = *in.Name
	}
	if in.Price != nil {
		sp.Price = *in.Price
	}
	if in.IsActive != nil {
		sp.IsActive = *in.IsActive
	}
	return nil
}

func (m *memStore) DeleteSubProduct(_ context.Context, id string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	delete(m.subs, id)
	return nil
}

// LeadStore

func (m *memStore) ListLeads(context.Context) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]domain.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		out = append(out, *l)
	}
	return out, nil
}

func (m *memStore) ListRecentLeads(ctx context.Context, limit int) ([]domain.Lead, error) {
	all, err := m.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memStore) GetLead(_ context.Context, id string) (*domain.Lead, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	for _, l := range m.leads {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateLead(_ context.Context, in *domain.NewLead) (*domain.Lead, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	sub := in.SubProductID
	l := m.addLead(domain.Lead{
		Name:            in.Name,
		Phone:           in.Phone,
		Source:          in.Source,
		ProductID:       in.ProductID,
		SubProductID:    &sub,
		AssignedAdminID: in.AssignedAdminID,
		CreatedAt:       time.Now(),
	})
	return l, nil
}

func (m *memStore) UpdateLead(_ context.Context, l *domain.Lead) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	for i, existing := range m.leads {
		if existing.ID == l.ID {
			cp := *l
			m.leads[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("lead %s missing", l.ID)
}

// AdminStore

func (m *memStore) ListAdmins(context.Context) ([]domain.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]domain.Admin, 0, len(m.admins))
	for _, a := range m.admins {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memStore) GetAdmin(_ context.Context, id string) (*domain.Admin, error) {
	for _, a := range m.admins {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateAdmin(_ context.Context, a *domain.Admin) (*domain.Admin, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	cp := *a
	cp.IsActive = true
	m.admins = append(m.admins, &cp)
	return &cp, nil
}

func (m *memStore) UpdateAdmin(_ context.Context, id string, in domain.AdminInput) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	for _, a := range m.admins {
		if a.ID != id {
			continue
		}
		if in.Name != nil {
			a.Name = *in.Name
		}
		if in.Role != nil {
			a.Role = *in.Role
		}
		if in.IsActive != nil {
			a.IsActive = *in.IsActive
		}
		if in.WhatsAppNumber != nil {
			a.WhatsAppNumber = in.WhatsAppNumber
		}
		if in.WhatsAppActive != nil {
			a.WhatsAppActive = *in.WhatsAppActive
		}
	}
	return nil
}

func (m *memStore) WriteAdminTotals(_ context.Context, totals map[string]domain.AdminTotals) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.totals = totals
	return nil
}

// HandleCustomerStore

func (m *memStore) ListHandleCustomers(context.Context) ([]domain.HandleCustomer, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]domain.HandleCustomer, 0, len(m.customers))
	for _, c := range m.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memStore) GetHandleCustomer(_ context.Context, id string) (*domain.HandleCustomer, error) {
	for _, c := range m.customers {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetHandleCustomerByLead(_ context.Context, leadID string) (*domain.HandleCustomer, error) {
	for _, c := range m.customers {
		if c.LeadID == leadID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateHandleCustomer(_ context.Context, hc *domain.HandleCustomer) (*domain.HandleCustomer, error) {
	cp := *hc
	cp.ID = m.id()
	m.customers = append(m.customers, &cp)
	return &cp, nil
}

func (m *memStore) UpdateHandleCustomer(_ context.Context, hc *domain.HandleCustomer) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	for i, c := range m.customers {
		if c.ID == hc.ID {
			cp := *hc
			m.customers[i] = &cp
		}
	}
	return nil
}

// TargetStore

func (m *memStore) ListTargets(_ context.Context, month, year int) ([]domain.AdminTarget, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []domain.AdminTarget
	for _, t := range m.targets {
		if month != 0 && year != 0 && (t.Month != month || t.Year != year) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) GetTarget(_ context.Context, id string) (*domain.AdminTarget, error) {
	for _, t := range m.targets {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateTarget(_ context.Context, t *domain.AdminTarget) (*domain.AdminTarget, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	cp := *t
	cp.ID = m.id()
	m.targets = append(m.targets, &cp)
	return &cp, nil
}

func (m *memStore) UpdateTarget(_ context.Context, id string, in domain.TargetInput) error {
	for _, t := range m.targets {
		if t.ID != id {
			continue
		}
		if in.MonthlyTarget != nil {
			t.MonthlyTarget = *in.MonthlyTarget
		}
		if in.DailyTarget != nil {
			t.DailyTarget = *in.DailyTarget
		}
	}
	return nil
}

func (m *memStore) DeleteTarget(_ context.Context, id string) error {
	for i, t := range m.targets {
		if t.ID == id {
			m.targets = append(m.targets[:i], m.targets[i+1:]...)
			return nil
		}
	}
	return nil
}

// identity

type mockIdentity struct {
	session   *domain.AuthSession
	signInErr error
	signedUp  []string
	signedOut []string
}

func (m *mockIdentity) SignInWithPassword(_ context.Context, _, _ string) (*domain.AuthSession, error) {
	return m.session, m.signInErr
}

func (m *mockIdentity) SignUp(_ context.Context, email, _ string) (*domain.AuthUser, error) {
	m.signedUp = append(m.signedUp, email)
	return &domain.AuthUser{ID: "user-" + email, Email: email}, nil
}

func (m *mockIdentity) SignOut(_ context.Context, token string) error {
	m.signedOut = append(m.signedOut, token)
	return nil
}

// dispatch

type recordingDispatcher struct {
	sent []*domain.LeadNotification
}

func (r *recordingDispatcher) Dispatch(_ context.Context, n *domain.LeadNotification) {
	r.sent = append(r.sent, n)
}

type mockMessenger struct {
	mu      sync.Mutex
	numbers []string
	texts   []string
	err     error
}

func (m *mockMessenger) Send(_ context.Context, number, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numbers = append(m.numbers, number)
	m.texts = append(m.texts, text)
	return m.err
}

func ptr[T any](v T) *T { return &v }

var (
	superAdmin = domain.Principal{AdminID: "root", Role: domain.RoleSuperAdmin}
	agent      = domain.Principal{AdminID: "agent", Role: domain.RoleAdmin}
	hcAgent    = domain.Principal{AdminID: "hc", Role: domain.RoleHandleCustomer}
)
