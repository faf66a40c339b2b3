package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ============================================================
// Lead aggregation for the dashboard and analytics screens.
// All functions work on an already-fetched slice and never fail.
// ============================================================

// Summary holds the headline lead metrics.
type Summary struct {
	TotalLeads     int     `json:"total_leads"`
	TotalClosings  int     `json:"total_closings"`
	TotalRevenue   float64 `json:"total_revenue"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Summarize computes totals over leads. Conversion rate is a percentage and
// is 0 for an empty list.
func Summarize(leads []Lead) Summary {
	var s Summary
	for i := range leads {
		s.TotalLeads++
		if leads[i].IsClosed() {
			s.TotalClosings++
		}
		s.TotalRevenue += leads[i].Revenue()
	}
	s.ConversionRate = percent(s.TotalClosings, s.TotalLeads)
	return s
}

// GroupStat accumulates counts for one breakdown key. Revenue only counts
// closed leads.
type GroupStat struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Leads    int     `json:"leads"`
	Closings int     `json:"closings"`
	Revenue  float64 `json:"revenue"`
}

type groupAcc struct {
	order []string
	stats map[string]*GroupStat
}

func newGroupAcc() *groupAcc {
	return &groupAcc{stats: make(map[string]*GroupStat)}
}

func (g *groupAcc) add(key, label string, l *Lead) {
	st, ok := g.stats[key]
	if !ok {
		st = &GroupStat{Key: key, Label: label}
		g.stats[key] = st
		g.order = append(g.order, key)
	}
	st.Leads++
	if l.IsClosed() {
		st.Closings++
		st.Revenue += l.Revenue()
	}
}

func (g *groupAcc) result() []GroupStat {
	out := make([]GroupStat, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, *g.stats[k])
	}
	return out
}

// GroupByProduct breaks leads down by (product, sub product) in first-seen order.
func GroupByProduct(leads []Lead) []GroupStat {
	acc := newGroupAcc()
	for i := range leads {
		l := &leads[i]
		productName := "Unknown"
		if l.Product != nil {
			productName = l.Product.Name
		}
		subID, label := "", productName
		if l.SubProductID != nil {
			subID = *l.SubProductID
		}
		if l.SubProduct != nil {
			label = productName + " - " + l.SubProduct.Name
		}
		acc.add(l.ProductID+"/"+subID, label, l)
	}
	return acc.result()
}

// GroupBySource breaks leads down by source channel in first-seen order.
func GroupBySource(leads []Lead) []GroupStat {
	acc := newGroupAcc()
	for i := range leads {
		src := string(leads[i].Source)
		acc.add(src, src, &leads[i])
	}
	return acc.result()
}

// TrendMonths is the number of buckets in the monthly trend.
const TrendMonths = 6

// TrendBucket is one month of the trailing trend.
type TrendBucket struct {
	Key      string  `json:"key"` // YYYY-MM
	Label    string  `json:"month"`
	Leads    int     `json:"leads"`
	Closings int     `json:"closings"`
	Revenue  float64 `json:"revenue"`
}

var idMonthShort = [12]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// MonthLabel formats a month the way id-ID short dates do, e.g. "Okt 2026".
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", idMonthShort[month-1], year)
}

// MonthlyTrend returns exactly TrendMonths buckets, oldest first, ending
// with the month of now in loc. Leads created outside the window are
// dropped.
func MonthlyTrend(leads []Lead, now time.Time, loc *time.Location) []TrendBucket {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	buckets := make([]TrendBucket, TrendMonths)
	index := make(map[string]int, TrendMonths)
	for i := 0; i < TrendMonths; i++ {
		m := first.AddDate(0, i-(TrendMonths-1), 0)
		key := m.Format("2006-01")
		buckets[i] = TrendBucket{Key: key, Label: MonthLabel(m.Year(), m.Month())}
		index[key] = i
	}

	for i := range leads {
		key := leads[i].CreatedAt.In(loc).Format("2006-01")
		idx, ok := index[key]
		if !ok {
			continue
		}
		buckets[idx].Leads++
		if leads[i].IsClosed() {
			buckets[idx].Closings++
			buckets[idx].Revenue += leads[i].Revenue()
		}
	}
	return buckets
}

// TargetProgress is target-vs-actual for one admin and month.
type TargetProgress struct {
	TargetID        string  `json:"target_id"`
	AdminID         string  `json:"admin_id"`
	AdminName       string  `json:"admin_name"`
	Month           int     `json:"month"`
	Year            int     `json:"year"`
	MonthlyTarget   int     `json:"monthly_target"`
	DailyTarget     int     `json:"daily_target"`
	Leads           int     `json:"leads"`
	ActualClosings  int     `json:"actual_closings"`
	Revenue         float64 `json:"revenue"`
	Progress        float64 `json:"progress"`
	ProgressDisplay float64 `json:"progress_display"`
}

// ComputeTargetProgress joins each target for month/year to the leads
// assigned to its admin and created in that month. A zero target yields 0%.
func ComputeTargetProgress(targets []AdminTarget, leads []Lead, month, year int, loc *time.Location) []TargetProgress {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]TargetProgress, 0, len(targets))
	for _, t := range targets {
		if t.Month != month || t.Year != year {
			continue
		}
		row := TargetProgress{
			TargetID:      t.ID,
			AdminID:       t.AdminID,
			Month:         t.Month,
			Year:          t.Year,
			MonthlyTarget: t.MonthlyTarget,
			DailyTarget:   t.DailyTarget,
		}
		if t.Admin != nil {
			row.AdminName = t.Admin.Name
		}
		for i := range leads {
			l := &leads[i]
			if l.AssignedAdminID == nil || *l.AssignedAdminID != t.AdminID {
				continue
			}
			created := l.CreatedAt.In(loc)
			if int(created.Month()) != month || created.Year() != year {
				continue
			}
			row.Leads++
			if l.IsClosed() {
				row.ActualClosings++
				row.Revenue += l.Revenue()
			}
		}
		row.Progress = percent(row.ActualClosings, t.MonthlyTarget)
		row.ProgressDisplay = math.Min(row.Progress, 100)
		out = append(out, row)
	}
	return out
}

// AdminTotals are lead totals attributed to one admin.
type AdminTotals struct {
	TotalLeads    int     `json:"total_leads"`
	TotalClosings int     `json:"total_closings"`
	TotalRevenue  float64 `json:"total_revenue"`
}

// ComputeAdminTotals derives per-admin totals from leads. Unassigned leads
// are not counted.
func ComputeAdminTotals(leads []Lead) map[string]AdminTotals {
	out := make(map[string]AdminTotals)
	for i := range leads {
		l := &leads[i]
		if l.AssignedAdminID == nil {
			continue
		}
		t := out[*l.AssignedAdminID]
		t.TotalLeads++
		if l.IsClosed() {
			t.TotalClosings++
			t.TotalRevenue += l.Revenue()
		}
		out[*l.AssignedAdminID] = t
	}
	return out
}

// AdminPerformance is an admin with totals computed from leads.
type AdminPerformance struct {
	AdminID        string  `json:"admin_id"`
	Name           string  `json:"name"`
	Role           Role    `json:"role"`
	IsActive       bool    `json:"is_active"`
	TotalLeads     int     `json:"total_leads"`
	TotalClosings  int     `json:"total_closings"`
	TotalRevenue   float64 `json:"total_revenue"`
	ConversionRate float64 `json:"conversion_rate"`
}

// RankAdmins computes each admin's performance from leads, ordered by
// revenue descending. Ties keep the input order.
func RankAdmins(admins []Admin, leads []Lead) []AdminPerformance {
	totals := ComputeAdminTotals(leads)
	out := make([]AdminPerformance, 0, len(admins))
	for _, a := range admins {
		t := totals[a.ID]
		out = append(out, AdminPerformance{
			AdminID:        a.ID,
			Name:           a.Name,
			Role:           a.Role,
			IsActive:       a.IsActive,
			TotalLeads:     t.TotalLeads,
			TotalClosings:  t.TotalClosings,
			TotalRevenue:   t.TotalRevenue,
			ConversionRate: percent(t.TotalClosings, t.TotalLeads),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRevenue > out[j].TotalRevenue
	})
	return out
}

// RoundOne rounds to one decimal place for display.
func RoundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
