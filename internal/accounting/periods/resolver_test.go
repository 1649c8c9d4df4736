package periods

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kencana-erp/kencana/internal/accounting/shared"
	_ "github.com/kencana-erp/kencana/testing"
)

func TestResolveMonth(t *testing.T) {
	p, err := Resolve(GranularityMonth, "202401")
	if err != nil {
		t.Fatalf("resolve month: %v", err)
	}
	if !p.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", p.Start)
	}
	if !p.End.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %v", p.End)
	}
	if p.Label != "Jan 2024" {
		t.Fatalf("unexpected label: %q", p.Label)
	}
}

func TestResolveMonthLeapFebruary(t *testing.T) {
	p, err := Resolve(GranularityMonth, "202402")
	if err != nil {
		t.Fatalf("resolve month: %v", err)
	}
	if p.End.Day() != 29 {
		t.Fatalf("expected leap-year end of month, got %v", p.End)
	}
}

func TestResolveYear(t *testing.T) {
	p, err := Resolve(GranularityYear, "2024")
	if err != nil {
		t.Fatalf("resolve year: %v", err)
	}
	if !p.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || !p.End.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range: %v .. %v", p.Start, p.End)
	}
	if p.Label != "FY 2024 (Jan–Dec)" {
		t.Fatalf("unexpected label: %q", p.Label)
	}
}

func TestResolveInvalidTokens(t *testing.T) {
	cases := []struct {
		g     Granularity
		token string
	}{
		{GranularityMonth, "2024"},
		{GranularityMonth, "202413"},
		{GranularityMonth, "202400"},
		{GranularityMonth, "2024-01"},
		{GranularityYear, "202401"},
		{GranularityYear, "24"},
		{Granularity("week"), "202401"},
	}
	for _, tc := range cases {
		if _, err := Resolve(tc.g, tc.token); !errors.Is(err, shared.ErrInvalidPeriod) {
			t.Fatalf("Resolve(%s, %q): expected ErrInvalidPeriod, got %v", tc.g, tc.token, err)
		}
	}
}

func TestPrevMonth(t *testing.T) {
	if got := PrevMonth("202401"); got != "202312" {
		t.Fatalf("PrevMonth(202401) = %q", got)
	}
	if got := PrevMonth("202403"); got != "202402" {
		t.Fatalf("PrevMonth(202403) = %q", got)
	}
	if got := PrevMonth("garbage"); got != "" {
		t.Fatalf("PrevMonth(garbage) = %q", got)
	}
}

type stubSnapshotPeriods struct {
	latest       string
	latestInYear map[string]string
	journalMonth string
}

func (s stubSnapshotPeriods) Latest(context.Context) (string, error) { return s.latest, nil }
func (s stubSnapshotPeriods) LatestInYear(_ context.Context, year string) (string, error) {
	return s.latestInYear[year], nil
}
func (s stubSnapshotPeriods) LatestJournalMonth(context.Context) (string, error) {
	return s.journalMonth, nil
}

func TestResolveEffectiveYearUsesLatestSnapshot(t *testing.T) {
	svc := NewService(stubSnapshotPeriods{latestInYear: map[string]string{"2024": "202411"}})
	p, err := svc.ResolveEffective(context.Background(), GranularityYear, "2024")
	if err != nil {
		t.Fatalf("resolve effective: %v", err)
	}
	if p.Effective != "202411" {
		t.Fatalf("unexpected effective period: %q", p.Effective)
	}
	if p.EffectiveLabel != "Nov 2024" {
		t.Fatalf("unexpected effective label: %q", p.EffectiveLabel)
	}
}

func TestResolveEffectiveYearWithoutSnapshots(t *testing.T) {
	svc := NewService(stubSnapshotPeriods{})
	p, err := svc.ResolveEffective(context.Background(), GranularityYear, "2024")
	if err != nil {
		t.Fatalf("resolve effective: %v", err)
	}
	if p.Effective != "" || p.EffectiveLabel != "" {
		t.Fatalf("expected empty effective period, got %q / %q", p.Effective, p.EffectiveLabel)
	}
}

func TestResolveEffectiveMonthIsSelf(t *testing.T) {
	svc := NewService(stubSnapshotPeriods{})
	p, err := svc.ResolveEffective(context.Background(), GranularityMonth, "202403")
	if err != nil {
		t.Fatalf("resolve effective: %v", err)
	}
	if p.Effective != "202403" {
		t.Fatalf("unexpected effective period: %q", p.Effective)
	}
}

func TestDefaultTokenPrefersSnapshots(t *testing.T) {
	svc := NewService(stubSnapshotPeriods{latest: "202405", journalMonth: "202406"})
	token, err := svc.DefaultToken(context.Background(), GranularityMonth)
	if err != nil {
		t.Fatalf("default token: %v", err)
	}
	if token != "202405" {
		t.Fatalf("unexpected default token: %q", token)
	}
	year, err := svc.DefaultToken(context.Background(), GranularityYear)
	if err != nil {
		t.Fatalf("default year token: %v", err)
	}
	if year != "2024" {
		t.Fatalf("unexpected default year: %q", year)
	}
}

func TestDefaultTokenFallsBackToJournal(t *testing.T) {
	svc := NewService(stubSnapshotPeriods{journalMonth: "202406"})
	token, err := svc.DefaultToken(context.Background(), GranularityMonth)
	if err != nil {
		t.Fatalf("default token: %v", err)
	}
	if token != "202406" {
		t.Fatalf("unexpected default token: %q", token)
	}
}

func TestDefaultTokenNoData(t *testing.T) {
	svc := NewService(stubSnapshotPeriods{})
	if _, err := svc.DefaultToken(context.Background(), GranularityMonth); !errors.Is(err, shared.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
