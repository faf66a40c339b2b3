package domain

import "time"

// Stage is the lifecycle state of a Lead.
type Stage string

const (
	StageOnProgress Stage = "on_progress"
	StageLoss       Stage = "loss"
	StageClosing    Stage = "closing"
)

func (s Stage) Valid() bool {
	switch s {
	case StageOnProgress, StageLoss, StageClosing:
		return true
	}
	return false
}

// Source is the channel a lead came through.
type Source string

const (
	SourceTikTok    Source = "TikTok"
	SourceInstagram Source = "Instagram"
	SourceYouTube   Source = "YouTube"
	SourceOther     Source = "Lainnya"
)

func (s Source) Valid() bool {
	switch s {
	case SourceTikTok, SourceInstagram, SourceYouTube, SourceOther:
		return true
	}
	return false
}

// PaymentType is how a closed lead pays.
type PaymentType string

const (
	PaymentFullTransfer PaymentType = "full_transfer"
	PaymentCOD          PaymentType = "cod"
	PaymentDeposit      PaymentType = "deposit"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentFullTransfer, PaymentCOD, PaymentDeposit:
		return true
	}
	return false
}

// Temperature is an informal urgency tag set by staff.
type Temperature string

const (
	TemperatureHot  Temperature = "Hot"
	TemperatureWarm Temperature = "Warm"
	TemperatureCold Temperature = "Cold"
)

func (t Temperature) Valid() bool {
	switch t {
	case TemperatureHot, TemperatureWarm, TemperatureCold:
		return true
	}
	return false
}

// Lead is a prospective customer captured from a public form.
type Lead struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Source          Source       `json:"source"`
	ProductID       string       `json:"product_id"`
	SubProductID    *string      `json:"sub_product_id"`
	AssignedAdminID *string      `json:"assigned_admin_id"`
	Notes           string       `json:"notes"`
	Stage           Stage        `json:"stage"`
	PaymentType     *PaymentType `json:"payment_type"`
	DPAmount        *float64     `json:"dp_amount"`
	FinalPrice      *float64     `json:"final_price"`
	Temperature     *Temperature `json:"temperature"`
	ClosingDate     *time.Time   `json:"closing_date"`
	PackageTaken    bool         `json:"package_taken"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	// Joined relations, present on reads that select them.
	Product       *Product    `json:"product,omitempty"`
	SubProduct    *SubProduct `json:"sub_product,omitempty"`
	AssignedAdmin *Admin      `json:"assigned_admin,omitempty"`
}

// Revenue returns the final price, or zero when unset.
func (l *Lead) Revenue() float64 {
	if l.FinalPrice == nil {
		return 0
	}
	return *l.FinalPrice
}

// IsClosed reports whether the lead reached the closing stage.
func (l *Lead) IsClosed() bool {
	return l.Stage == StageClosing
}

// NewLead is the write model for a lead created by the public form.
type NewLead struct {
	Name            string  `json:"name"`
	Phone           string  `json:"phone"`
	Source          Source  `json:"source"`
	ProductID       string  `json:"product_id"`
	SubProductID    string  `json:"sub_product_id"`
	AssignedAdminID *string `json:"assigned_admin_id,omitempty"`
}

// LeadFilter narrows the lead list. Empty fields do not filter.
type LeadFilter struct {
	Query       string
	Stage       Stage
	Temperature Temperature
	Source      Source
	AdminID     string
}

// Match reports whether a lead passes the filter. Query matches name,
// phone or product name, case-insensitively.
func (f LeadFilter) Match(l *Lead) bool {
	if f.Stage != "" && l.Stage != f.Stage {
		return false
	}
	if f.Temperature != "" && (l.Temperature == nil || *l.Temperature != f.Temperature) {
		return false
	}
	if f.Source != "" && l.Source != f.Source {
		return false
	}
	if f.AdminID != "" && (l.AssignedAdminID == nil || *l.AssignedAdminID != f.AdminID) {
		return false
	}
	if f.Query != "" {
		productName := ""
		if l.Product != nil {
			productName = l.Product.Name
		}
		if !containsFold(l.Name, f.Query) && !containsFold(l.Phone, f.Query) && !containsFold(productName, f.Query) {
			return false
		}
	}
	return true
}
