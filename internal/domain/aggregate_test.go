package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestSummarize_RevenueScenario(t *testing.T) {
	leads := []domain.Lead{
		{ID: "l1", Stage: domain.StageClosing, FinalPrice: ptr(100000.0)},
		{ID: "l2", Stage: domain.StageClosing, FinalPrice: ptr(250000.0)},
		{ID: "l3", Stage: domain.StageOnProgress},
	}

	s := domain.Summarize(leads)

	if s.TotalRevenue != 350000 {
		t.Errorf("expected revenue 350000, got %v", s.TotalRevenue)
	}
	if s.TotalClosings != 2 {
		t.Errorf("expected 2 closings, got %d", s.TotalClosings)
	}
	if s.TotalLeads != 3 {
		t.Errorf("expected 3 leads, got %d", s.TotalLeads)
	}
	if got := domain.RoundOne(s.ConversionRate); got != 66.7 {
		t.Errorf("expected conversion 66.7, got %v", got)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := domain.Summarize(nil)
	if s.ConversionRate != 0 || s.TotalLeads != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestGroupBySource_FirstSeenOrder(t *testing.T) {
	leads := []domain.Lead{
		{Source: domain.SourceInstagram},
		{Source: domain.SourceTikTok, Stage: domain.StageClosing, FinalPrice: ptr(10.0)},
		{Source: domain.SourceInstagram, Stage: domain.StageClosing, FinalPrice: ptr(5.0)},
		{Source: domain.SourceOther},
	}

	groups := domain.GroupBySource(leads)

	want := []string{"Instagram", "TikTok", "Lainnya"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, k := range want {
		if groups[i].Key != k {
			t.Errorf("group %d: expected %s, got %s", i, k, groups[i].Key)
		}
	}
	if groups[0].Leads != 2 || groups[0].Closings != 1 || groups[0].Revenue != 5 {
		t.Errorf("unexpected Instagram stats: %+v", groups[0])
	}
}

func TestGroupByProduct_KeysBySubProduct(t *testing.T) {
	course := &domain.Product{ID: "p1", Name: "Course A"}
	basic := &domain.SubProduct{ID: "s1", Name: "Basic"}
	pro := &domain.SubProduct{ID: "s2", Name: "Pro"}
	leads := []domain.Lead{
		{ProductID: "p1", SubProductID: ptr("s2"), Product: course, SubProduct: pro},
		{ProductID: "p1", SubProductID: ptr("s1"), Product: course, SubProduct: basic},
		{ProductID: "p1", SubProductID: ptr("s2"), Product: course, SubProduct: pro, Stage: domain.StageClosing, FinalPrice: ptr(500000.0)},
		{ProductID: "p9"},
	}

	groups := domain.GroupByProduct(leads)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Label != "Course A - Pro" || groups[0].Leads != 2 || groups[0].Revenue != 500000 {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
	if groups[1].Label != "Course A - Basic" {
		t.Errorf("expected Basic second, got %s", groups[1].Label)
	}
	if groups[2].Label != "Unknown" {
		t.Errorf("expected Unknown label for missing product, got %s", groups[2].Label)
	}
}

func TestMonthlyTrend_AlwaysSixBuckets(t *testing.T) {
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

	buckets := domain.MonthlyTrend(nil, now, time.UTC)

	if len(buckets) != domain.TrendMonths {
		t.Fatalf("expected %d buckets, got %d", domain.TrendMonths, len(buckets))
	}
	if buckets[0].Label != "Mei 2026" {
		t.Errorf("expected first bucket Mei 2026, got %s", buckets[0].Label)
	}
	if buckets[5].Label != "Okt 2026" {
		t.Errorf("expected last bucket Okt 2026, got %s", buckets[5].Label)
	}
	for _, b := range buckets {
		if b.Leads != 0 || b.Revenue != 0 {
			t.Errorf("expected empty bucket, got %+v", b)
		}
	}
}

func TestMonthlyTrend_DropsOutsideWindow(t *testing.T) {
	now := time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC)
	leads := []domain.Lead{
		{CreatedAt: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), Stage: domain.StageClosing, FinalPrice: ptr(100.0)},
		{CreatedAt: time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
	}

	buckets := domain.MonthlyTrend(leads, now, time.UTC)

	if buckets[0].Key != "2025-09" || buckets[0].Leads != 1 {
		t.Errorf("expected Sep 2025 bucket with 1 lead, got %+v", buckets[0])
	}
	if buckets[5].Key != "2026-02" || buckets[5].Closings != 1 || buckets[5].Revenue != 100 {
		t.Errorf("unexpected Feb bucket: %+v", buckets[5])
	}
	total := 0
	for _, b := range buckets {
		total += b.Leads
	}
	if total != 2 {
		t.Errorf("expected 2 leads inside the window, got %d", total)
	}
}

func TestComputeTargetProgress(t *testing.T) {
	oct := time.Date(2026, time.October, 5, 0, 0, 0, 0, time.UTC)
	sep := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	targets := []domain.AdminTarget{
		{ID: "t1", AdminID: "a1", Month: 10, Year: 2026, MonthlyTarget: 2},
		{ID: "t2", AdminID: "a2", Month: 10, Year: 2026, MonthlyTarget: 0},
		{ID: "t3", AdminID: "a1", Month: 9, Year: 2026, MonthlyTarget: 4},
	}
	leads := []domain.Lead{
		{AssignedAdminID: ptr("a1"), Stage: domain.StageClosing, CreatedAt: oct},
		{AssignedAdminID: ptr("a1"), Stage: domain.StageClosing, CreatedAt: oct},
		{AssignedAdminID: ptr("a1"), Stage: domain.StageClosing, CreatedAt: oct},
		{AssignedAdminID: ptr("a1"), Stage: domain.StageClosing, CreatedAt: sep},
		{AssignedAdminID: ptr("a2"), Stage: domain.StageClosing, CreatedAt: oct},
	}

	rows := domain.ComputeTargetProgress(targets, leads, 10, 2026, time.UTC)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows for October, got %d", len(rows))
	}
	if rows[0].ActualClosings != 3 || rows[0].Progress != 150 || rows[0].ProgressDisplay != 100 {
		t.Errorf("unexpected progress for a1: %+v", rows[0])
	}
	if rows[1].Progress != 0 || math.IsNaN(rows[1].Progress) || math.IsInf(rows[1].Progress, 0) {
		t.Errorf("expected 0 progress for zero target, got %v", rows[1].Progress)
	}
}

func TestRankAdmins_ComputedFromLeads(t *testing.T) {
	admins := []domain.Admin{
		{ID: "a1", Name: "Rina", TotalRevenue: 999999},
		{ID: "a2", Name: "Budi"},
	}
	leads := []domain.Lead{
		{AssignedAdminID: ptr("a2"), Stage: domain.StageClosing, FinalPrice: ptr(300.0)},
		{AssignedAdminID: ptr("a1"), Stage: domain.StageClosing, FinalPrice: ptr(100.0)},
		{AssignedAdminID: ptr("a1")},
	}

	ranked := domain.RankAdmins(admins, leads)

	if ranked[0].AdminID != "a2" {
		t.Fatalf("expected a2 first, got %s", ranked[0].AdminID)
	}
	if ranked[1].TotalRevenue != 100 || ranked[1].TotalLeads != 2 || ranked[1].ConversionRate != 50 {
		t.Errorf("unexpected a1 performance: %+v", ranked[1])
	}
}
