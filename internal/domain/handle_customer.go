package domain

import "time"

// HandleCustomer tracks post-closing follow up for a converted lead.
type HandleCustomer struct {
	ID             string     `json:"id"`
	LeadID         string     `json:"lead_id"`
	AssignedHCID   *string    `json:"assigned_hc_id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	SubProductName string     `json:"sub_product_name"`
	IsContacted    bool       `json:"is_contacted"`
	Notes          string     `json:"notes"`
	ContactedAt    *time.Time `json:"contacted_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	AssignedHC *Admin `json:"assigned_hc,omitempty"`
	Lead       *Lead  `json:"lead,omitempty"`
}

// HandleCustomerDraft holds pending edits keyed by ID.
type HandleCustomerDraft struct {
	ID           string  `json:"-"`
	IsContacted  *bool   `json:"is_contacted"`
	Notes        *string `json:"notes"`
	AssignedHCID *string `json:"assigned_hc_id"`
}

// ApplyContactDraft commits a draft. Marking a customer contacted without
// a contact time stamps now; an existing contact time is kept.
func ApplyContactDraft(current HandleCustomer, d HandleCustomerDraft, now time.Time) HandleCustomer {
	next := current
	next.AssignedHC, next.Lead = nil, nil
	if d.IsContacted != nil {
		next.IsContacted = *d.IsContacted
	}
	if d.Notes != nil {
		next.Notes = *d.Notes
	}
	if d.AssignedHCID != nil {
		if *d.AssignedHCID == "" {
			next.AssignedHCID = nil
		} else {
			next.AssignedHCID = d.AssignedHCID
		}
	}
	if next.IsContacted && next.ContactedAt == nil {
		stamp := now
		next.ContactedAt = &stamp
	}
	next.UpdatedAt = now
	return next
}

// NewHandleCustomerFromLead builds the follow-up record spawned when a lead
// closes.
func NewHandleCustomerFromLead(l *Lead, subProductName string) HandleCustomer {
	return HandleCustomer{
		LeadID:         l.ID,
		Name:           l.Name,
		Phone:          l.Phone,
		SubProductName: subProductName,
	}
}

// ContactFilter narrows the handle-customer list.
type ContactFilter struct {
	Query string
	// Contacted is nil for no filter.
	Contacted *bool
}

func (f ContactFilter) Match(c *HandleCustomer) bool {
	if f.Contacted != nil && c.IsContacted != *f.Contacted {
		return false
	}
	if f.Query != "" {
		return containsFold(c.Name, f.Query) || containsFold(c.Phone, f.Query) || containsFold(c.SubProductName, f.Query)
	}
	return true
}
