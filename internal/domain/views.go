package domain

// IntakeForm is what the public product page renders.
type IntakeForm struct {
	Product     Product      `json:"product"`
	SubProducts []SubProduct `json:"sub_products"`
	Sources     []Source     `json:"sources"`
}

// IntakeRequest is the public form submission.
type IntakeRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	SubProductID string `json:"sub_product_id"`
	Source       Source `json:"source"`
}

// IntakeConfirmation is shown after a successful submission.
type IntakeConfirmation struct {
	LeadID      string `json:"lead_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	ProductName string `json:"product_name"`
	PackageName string `json:"package_name"`
}

// Dashboard is the landing screen of the console.
type Dashboard struct {
	Stats       Summary            `json:"stats"`
	RecentLeads []Lead             `json:"recent_leads"`
	TopAdmins   []AdminPerformance `json:"top_admins"`
}

// Analytics is the analytics screen payload.
type Analytics struct {
	Stats            Summary            `json:"stats"`
	ProductStats     []GroupStat        `json:"product_stats"`
	SourceStats      []GroupStat        `json:"source_stats"`
	MonthlyTrend     []TrendBucket      `json:"monthly_trend"`
	AdminPerformance []AdminPerformance `json:"admin_performance"`
}

// ReconcileEntry records the totals change for one admin.
type ReconcileEntry struct {
	AdminID string      `json:"admin_id"`
	Name    string      `json:"name"`
	Before  AdminTotals `json:"before"`
	After   AdminTotals `json:"after"`
}

// ReconcileReport summarizes one reconciliation run.
type ReconcileReport struct {
	Checked int              `json:"checked"`
	Updated int              `json:"updated"`
	DryRun  bool             `json:"dry_run"`
	Changes []ReconcileEntry `json:"changes"`
}

// LeadNotification is the event emitted when a lead is created for an
// admin with an active messaging channel.
type LeadNotification struct {
	LeadID      string `json:"lead_id"`
	LeadName    string `json:"lead_name"`
	LeadPhone   string `json:"lead_phone"`
	Source      Source `json:"source"`
	ProductName string `json:"product_name"`
	PackageName string `json:"package_name"`
	AdminID     string `json:"admin_id"`
	AdminName   string `json:"admin_name"`
	AdminEmail  string `json:"admin_email"`
	WhatsApp    string `json:"whatsapp"`
}
