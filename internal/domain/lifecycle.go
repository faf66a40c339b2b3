package domain

import (
	"strings"
	"time"
)

// LeadDraft holds pending edits for one lead, keyed by LeadID. The stored
// lead is left untouched until the draft is committed through ApplyDraft.
// Nil fields mean "unchanged". A JSON null therefore cannot remove a value;
// ClearDPAmount drops the down payment while keeping payment_type deposit,
// and AssignedAdminID "" unassigns.
type LeadDraft struct {
	LeadID          string       `json:"-"`
	Stage           *Stage       `json:"stage"`
	PaymentType     *PaymentType `json:"payment_type"`
	DPAmount        *float64     `json:"dp_amount"`
	FinalPrice      *float64     `json:"final_price"`
	Temperature     *Temperature `json:"temperature"`
	Notes           *string      `json:"notes"`
	AssignedAdminID *string      `json:"assigned_admin_id"`
	ClosingDate     *time.Time   `json:"closing_date"`

	ClearDPAmount bool `json:"clear_dp_amount"`

	// PackageTaken is the legacy closing switch. true moves the lead to
	// closing, false moves a closed lead back to on_progress. An explicit
	// Stage wins over it.
	PackageTaken *bool `json:"package_taken"`
}

// Transition describes how a commit moved a lead through its stages.
type Transition struct {
	From Stage
	To   Stage
}

// EnteredClosing reports a move from a non-closing stage into closing.
func (t Transition) EnteredClosing() bool {
	return t.From != StageClosing && t.To == StageClosing
}

// LeftClosing reports a move out of closing.
func (t Transition) LeftClosing() bool {
	return t.From == StageClosing && t.To != StageClosing
}

// ApplyDraft returns the lead that results from committing draft over
// current at time now. current is not modified.
//
// Rules:
//   - entering closing without a closing date stamps now; an existing
//     date is kept, and package_taken becomes true
//   - payment_type and dp_amount are only accepted when the resulting
//     stage is closing; dp_amount requires payment_type deposit
//   - leaving closing clears payment_type, dp_amount, closing_date and
//     package_taken; final_price is kept
func ApplyDraft(current Lead, d LeadDraft, now time.Time) (Lead, Transition, error) {
	next := current
	next.Product, next.SubProduct, next.AssignedAdmin = nil, nil, nil

	if d.Stage != nil && !d.Stage.Valid() {
		return current, Transition{}, &ErrValidation{Field: "stage", Message: "must be one of on_progress, loss, closing"}
	}
	if d.PaymentType != nil && !d.PaymentType.Valid() {
		return current, Transition{}, &ErrValidation{Field: "payment_type", Message: "must be one of full_transfer, cod, deposit"}
	}
	if d.Temperature != nil && !d.Temperature.Valid() {
		return current, Transition{}, &ErrValidation{Field: "temperature", Message: "must be one of Hot, Warm, Cold"}
	}
	if d.FinalPrice != nil && *d.FinalPrice < 0 {
		return current, Transition{}, &ErrValidation{Field: "final_price", Message: "must not be negative"}
	}
	if d.DPAmount != nil && *d.DPAmount < 0 {
		return current, Transition{}, &ErrValidation{Field: "dp_amount", Message: "must not be negative"}
	}
	if d.DPAmount != nil && d.ClearDPAmount {
		return current, Transition{}, &ErrValidation{Field: "dp_amount", Message: "cannot be set and cleared together"}
	}

	switch {
	case d.Stage != nil:
		next.Stage = *d.Stage
	case d.PackageTaken != nil && *d.PackageTaken:
		next.Stage = StageClosing
	case d.PackageTaken != nil && !*d.PackageTaken && current.Stage == StageClosing:
		next.Stage = StageOnProgress
	}
	if next.Stage == "" {
		next.Stage = StageOnProgress
	}

	if d.Notes != nil {
		next.Notes = strings.TrimSpace(*d.Notes)
	}
	if d.Temperature != nil {
		next.Temperature = d.Temperature
	}
	if d.FinalPrice != nil {
		next.FinalPrice = d.FinalPrice
	}
	if d.AssignedAdminID != nil {
		if *d.AssignedAdminID == "" {
			next.AssignedAdminID = nil
		} else {
			next.AssignedAdminID = d.AssignedAdminID
		}
	}

	if next.Stage == StageClosing {
		if d.ClosingDate != nil {
			next.ClosingDate = d.ClosingDate
		}
		if next.ClosingDate == nil {
			stamp := now
			next.ClosingDate = &stamp
		}
		next.PackageTaken = true

		if d.PaymentType != nil {
			next.PaymentType = d.PaymentType
		}
		if d.DPAmount != nil {
			next.DPAmount = d.DPAmount
		}
		if d.ClearDPAmount {
			next.DPAmount = nil
		}
		if next.PaymentType == nil || *next.PaymentType != PaymentDeposit {
			if d.DPAmount != nil {
				return current, Transition{}, &ErrValidation{Field: "dp_amount", Message: "only allowed with payment_type deposit"}
			}
			next.DPAmount = nil
		}
		if next.DPAmount != nil && next.FinalPrice != nil && *next.DPAmount > *next.FinalPrice {
			return current, Transition{}, &ErrValidation{Field: "dp_amount", Message: "must not exceed final_price"}
		}
	} else {
		if d.PaymentType != nil || d.DPAmount != nil || d.ClosingDate != nil {
			return current, Transition{}, &ErrValidation{Field: "stage", Message: "payment fields require stage closing"}
		}
		next.PaymentType = nil
		next.DPAmount = nil
		next.ClosingDate = nil
		next.PackageTaken = false
	}

	next.UpdatedAt = now
	return next, Transition{From: current.Stage, To: next.Stage}, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
