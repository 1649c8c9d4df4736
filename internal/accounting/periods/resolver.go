package periods

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kencana-erp/kencana/internal/accounting/shared"
)

var (
	monthPattern = regexp.MustCompile(`^\d{6}$`)
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// Resolve turns a granularity and raw period token into a concrete date range
// and display label. It performs no data access; the effective snapshot period
// is resolved separately by Service.
func Resolve(g Granularity, token string) (Period, error) {
	token = strings.TrimSpace(token)
	switch g {
	case GranularityMonth:
		if !monthPattern.MatchString(token) {
			return Period{}, fmt.Errorf("%w: %q is not YYYYMM", shared.ErrInvalidPeriod, token)
		}
		year, _ := strconv.Atoi(token[:4])
		month, _ := strconv.Atoi(token[4:])
		if month < 1 || month > 12 {
			return Period{}, fmt.Errorf("%w: month %02d out of range", shared.ErrInvalidPeriod, month)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Granularity: g,
			Token:       token,
			Start:       start,
			End:         start.AddDate(0, 1, -1),
			Label:       MonthLabel(token),
		}, nil
	case GranularityYear:
		if !yearPattern.MatchString(token) {
			return Period{}, fmt.Errorf("%w: %q is not YYYY", shared.ErrInvalidPeriod, token)
		}
		year, _ := strconv.Atoi(token)
		return Period{
			Granularity: g,
			Token:       token,
			Start:       time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:         time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
			Label:       fmt.Sprintf("FY %s (Jan–Dec)", token),
		}, nil
	default:
		return Period{}, fmt.Errorf("%w: unknown granularity %q", shared.ErrInvalidPeriod, g)
	}
}

// MonthLabel renders a YYYYMM token as "Mon YYYY" using Indonesian month
// abbreviations. Invalid tokens render empty.
func MonthLabel(yyyymm string) string {
	if !monthPattern.MatchString(yyyymm) {
		return ""
	}
	month, _ := strconv.Atoi(yyyymm[4:])
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1] + " " + yyyymm[:4]
}

// PrevMonth returns the YYYYMM token for the calendar month before the given
// one, or empty on an invalid token.
func PrevMonth(yyyymm string) string {
	if !monthPattern.MatchString(yyyymm) {
		return ""
	}
	year, _ := strconv.Atoi(yyyymm[:4])
	month, _ := strconv.Atoi(yyyymm[4:])
	if month < 1 || month > 12 {
		return ""
	}
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return t.Format("200601")
}

// SnapshotPeriods exposes the snapshot period lookups the resolver needs.
type SnapshotPeriods interface {
	Latest(ctx context.Context) (string, error)
	LatestInYear(ctx context.Context, year string) (string, error)
	LatestJournalMonth(ctx context.Context) (string, error)
}

// Service resolves periods including the effective snapshot period and the
// system-wide default period.
type Service struct {
	repo SnapshotPeriods
}

// NewService constructs a period resolver service.
func NewService(repo SnapshotPeriods) *Service {
	return &Service{repo: repo}
}

// ResolveEffective resolves the period and attaches the effective snapshot
// period: the month itself for monthly reports, the latest snapshot period
// within the year for yearly reports. A yearly period with no snapshots keeps
// an empty effective period.
func (s *Service) ResolveEffective(ctx context.Context, g Granularity, token string) (Period, error) {
	period, err := Resolve(g, token)
	if err != nil {
		return Period{}, err
	}
	switch g {
	case GranularityMonth:
		period.Effective = period.Token
	case GranularityYear:
		if s == nil || s.repo == nil {
			return Period{}, fmt.Errorf("periods: snapshot repository not configured")
		}
		effective, err := s.repo.LatestInYear(ctx, period.Token)
		if err != nil {
			return Period{}, err
		}
		period.Effective = effective
	}
	period.EffectiveLabel = MonthLabel(period.Effective)
	return period, nil
}

// LatestSnapshotInYear exposes the snapshot lookup for callers that resolve
// opening periods across year boundaries.
func (s *Service) LatestSnapshotInYear(ctx context.Context, year string) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("periods: snapshot repository not configured")
	}
	return s.repo.LatestInYear(ctx, year)
}

// DefaultToken returns the most recent period with data for the granularity:
// the latest snapshot period, falling back to the latest journal month.
func (s *Service) DefaultToken(ctx context.Context, g Granularity) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("periods: snapshot repository not configured")
	}
	token, err := s.repo.Latest(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		token, err = s.repo.LatestJournalMonth(ctx)
		if err != nil {
			return "", err
		}
	}
	if token == "" {
		return "", fmt.Errorf("%w: no period with data", shared.ErrInvalidPeriod)
	}
	if g == GranularityYear {
		return token[:4], nil
	}
	return token, nil
}
