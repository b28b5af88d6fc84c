package assessment

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Period is the granularity of chart buckets.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod accepts week, month or year (case-insensitive).
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Aggregator buckets history entries for charts. Calendar boundaries are
// evaluated in Location; weeks start on WeekStart.
type Aggregator struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// NewAggregator returns an aggregator for loc (UTC when nil) with Monday weeks.
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{Location: loc, WeekStart: time.Monday}
}

func (a *Aggregator) loc() *time.Location {
	if a.Location == nil {
		return time.UTC
	}
	return a.Location
}

// Bucket groups entries by period. Buckets are chronological and contiguous
// between the first and last entry; periods without entries yield empty buckets.
// Each breakdown item above the neutral midpoint adds its excess to
// PositiveSum; each item below adds its shortfall to NegativeSum.
func (a *Aggregator) Bucket(entries []HistoryEntry, period Period) []ChartBucket {
	if len(entries) == 0 {
		return nil
	}
	sorted := append([]HistoryEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	first := a.periodStart(sorted[0].Date, period)
	last := a.periodStart(sorted[len(sorted)-1].Date, period)

	var buckets []ChartBucket
	index := map[civilDate]int{}
	for start := first; !last.before(start); start = start.nextPeriod(period) {
		index[start] = len(buckets)
		buckets = append(buckets, ChartBucket{PeriodStart: start.midnight(a.loc())})
	}
	for _, e := range sorted {
		key := a.periodStart(e.Date, period)
		i, ok := index[key]
		if !ok {
			panic(fmt.Sprintf("history: no %s bucket for %v", period, key))
		}
		b := &buckets[i]
		b.Entries++
		for _, item := range e.Score.Breakdown {
			switch d := float64(item.Score - NeutralScore); {
			case d > 0:
				b.PositiveSum += d
			case d < 0:
				b.NegativeSum += -d
			}
		}
	}
	return buckets
}

// Streak counts consecutive calendar days, ending on asOf's day, that have at
// least one entry. It is 0 when asOf's day has none.
func (a *Aggregator) Streak(entries []HistoryEntry, asOf time.Time) int {
	days := a.daySet(entries)
	streak := 0
	for day := a.day(asOf); days[day]; day = day.addDays(-1) {
		streak++
	}
	return streak
}

// Coverage is the fraction of calendar days in [from, to] with at least one entry.
func (a *Aggregator) Coverage(entries []HistoryEntry, from, to time.Time) float64 {
	start, end := a.day(from), a.day(to)
	if end.before(start) {
		return 0
	}
	days := a.daySet(entries)
	total, covered := 0, 0
	for d := start; !end.before(d); d = d.addDays(1) {
		total++
		if days[d] {
			covered++
		}
	}
	return float64(covered) / float64(total)
}

func (a *Aggregator) daySet(entries []HistoryEntry) map[civilDate]bool {
	days := make(map[civilDate]bool, len(entries))
	for _, e := range entries {
		days[a.day(e.Date)] = true
	}
	return days
}

func (a *Aggregator) day(t time.Time) civilDate {
	t = t.In(a.loc())
	return civilDate{year: t.Year(), month: t.Month(), day: t.Day()}
}

func (a *Aggregator) periodStart(t time.Time, period Period) civilDate {
	d := a.day(t)
	switch period {
	case PeriodMonth:
		return civilDate{year: d.year, month: d.month, day: 1}
	case PeriodYear:
		return civilDate{year: d.year, month: time.January, day: 1}
	default:
		offset := (int(d.weekday()) - int(a.WeekStart) + 7) % 7
		return d.addDays(-offset)
	}
}

// civilDate is a calendar day independent of any zone. Day arithmetic runs on
// civil fields so a missing local midnight (DST at 00:00) cannot shift keys.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func (c civilDate) utcNoon() time.Time {
	return time.Date(c.year, c.month, c.day, 12, 0, 0, 0, time.UTC)
}

func (c civilDate) addDays(n int) civilDate {
	t := time.Date(c.year, c.month, c.day+n, 12, 0, 0, 0, time.UTC)
	return civilDate{year: t.Year(), month: t.Month(), day: t.Day()}
}

func (c civilDate) weekday() time.Weekday { return c.utcNoon().Weekday() }

func (c civilDate) before(o civilDate) bool { return c.utcNoon().Before(o.utcNoon()) }

// midnight is the first instant of the day in loc. When local midnight does
// not exist, time.Date moves it forward to the first valid instant.
func (c civilDate) midnight(loc *time.Location) time.Time {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, loc)
}

func (c civilDate) nextPeriod(period Period) civilDate {
	switch period {
	case PeriodMonth:
		t := time.Date(c.year, c.month+1, 1, 12, 0, 0, 0, time.UTC)
		return civilDate{year: t.Year(), month: t.Month(), day: 1}
	case PeriodYear:
		return civilDate{year: c.year + 1, month: time.January, day: 1}
	default:
		return c.addDays(7)
	}
}
