package domain

import "time"

// AdminTarget is a monthly closing quota for one admin.
type AdminTarget struct {
	ID            string    `json:"id"`
	AdminID       string    `json:"admin_id"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
	MonthlyTarget int       `json:"monthly_target"`
	DailyTarget   int       `json:"daily_target"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Admin *Admin `json:"admin,omitempty"`
}

// TargetInput creates or updates a target. Nil fields are unchanged.
type TargetInput struct {
	AdminID       *string `json:"admin_id"`
	Month         *int    `json:"month"`
	Year          *int    `json:"year"`
	MonthlyTarget *int    `json:"monthly_target"`
	DailyTarget   *int    `json:"daily_target"`
}

// Validate checks the ranges of any fields present.
func (in TargetInput) Validate() error {
	if in.Month != nil && (*in.Month < 1 || *in.Month > 12) {
		return &ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	if in.Year != nil && (*in.Year < 2000 || *in.Year > 9999) {
		return &ErrValidation{Field: "year", Message: "out of range"}
	}
	if in.MonthlyTarget != nil && *in.MonthlyTarget < 0 {
		return &ErrValidation{Field: "monthly_target", Message: "must not be negative"}
	}
	if in.DailyTarget != nil && *in.DailyTarget < 0 {
		return &ErrValidation{Field: "daily_target", Message: "must not be negative"}
	}
	return nil
}
