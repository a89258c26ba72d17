// Package insights derives earnings and visit totals from attendance
// records. Everything here is a pure function of its inputs.
package insights

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salon/internal/model"
)

// Range is an inclusive span of instants.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether Start <= t <= End.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// DayRange covers the whole of the calendar days from and to in loc.
func DayRange(from, to model.DateOnly, loc *time.Location) Range {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return Range{Start: start, End: end}
}

// MonthToDate runs from the first of the current month to the end of today.
func MonthToDate(now time.Time, loc *time.Location) Range {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	return Range{
		Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}

// Summary is what the home and history screens display.
type Summary struct {
	TotalEarnings   decimal.Decimal `json:"totalEarnings"`
	TotalAttendance int             `json:"totalAttendance"`
}

// ServiceTotal is one row of the per-service breakdown.
type ServiceTotal struct {
	Service  string          `json:"service"`
	Earnings decimal.Decimal `json:"earnings"`
	Visits   int             `json:"visits"`
}

// Filter keeps records inside r (all records when r is nil) whose customer
// name contains search, ignoring case. Order is preserved.
func Filter(records []model.AttendanceRecord, r *Range, search string) []model.AttendanceRecord {
	needle := strings.ToLower(search)
	out := make([]model.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if r != nil && !r.Contains(rec.Date) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(rec.Customer), needle) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Aggregate sums amounts and counts records inside r. A nil range includes
// every record.
func Aggregate(records []model.AttendanceRecord, r *Range) Summary {
	sum := Summary{TotalEarnings: decimal.Zero}
	for _, rec := range records {
		if r != nil && !r.Contains(rec.Date) {
			continue
		}
		sum.TotalEarnings = sum.TotalEarnings.Add(rec.Amount)
		sum.TotalAttendance++
	}
	return sum
}

// ByService groups the records inside r by service, highest earnings first.
func ByService(records []model.AttendanceRecord, r *Range) []ServiceTotal {
	idx := map[string]int{}
	var out []ServiceTotal
	for _, rec := range records {
		if r != nil && !r.Contains(rec.Date) {
			continue
		}
		i, ok := idx[rec.Service]
		if !ok {
			i = len(out)
			idx[rec.Service] = i
			out = append(out, ServiceTotal{Service: rec.Service, Earnings: decimal.Zero})
		}
		out[i].Earnings = out[i].Earnings.Add(rec.Amount)
		out[i].Visits++
	}
	slices.SortFunc(out, func(a, b ServiceTotal) int {
		if c := b.Earnings.Cmp(a.Earnings); c != 0 {
			return c
		}
		return strings.Compare(a.Service, b.Service)
	})
	return out
}
