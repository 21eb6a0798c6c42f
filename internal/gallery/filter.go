// Package gallery holds the batch list view-model and the upload flow.
package gallery

import (
	"strings"
	"sync"
	"time"

	"github.com/cyberwithaman/digicon/internal/models"
)

// Date is a calendar day with no time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
}

// Filter keeps the last fetched batch collection and a view derived from a
// text query and an optional creation date. The view is recomputed on every
// change and never edited on its own.
type Filter struct {
	mu       sync.RWMutex
	all      []models.Batch
	query    string
	date     *Date
	filtered []models.Batch
}

func NewFilter() *Filter {
	return &Filter{}
}

func (f *Filter) SetQuery(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = text
	f.recompute()
}

// SetDateFilter sets or, with nil, clears the date filter.
func (f *Filter) SetDateFilter(d *Date) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d == nil {
		f.date = nil
	} else {
		day := *d
		f.date = &day
	}
	f.recompute()
}

func (f *Filter) ClearDateFilter() {
	f.SetDateFilter(nil)
}

// Refresh replaces the collection wholesale and reapplies the current filters.
func (f *Filter) Refresh(all []models.Batch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = append([]models.Batch(nil), all...)
	f.recompute()
}

func (f *Filter) Query() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.query
}

func (f *Filter) DateFilter() *Date {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.date == nil {
		return nil
	}
	d := *f.date
	return &d
}

func (f *Filter) All() []models.Batch {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.Batch(nil), f.all...)
}

func (f *Filter) Filtered() []models.Batch {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.Batch(nil), f.filtered...)
}

// Lookup finds a batch in the full collection, ignoring filters.
func (f *Filter) Lookup(id int64) (models.Batch, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, b := range f.all {
		if b.ID == id {
			return b, true
		}
	}
	return models.Batch{}, false
}

func (f *Filter) recompute() {
	f.filtered = Apply(f.all, f.query, f.date)
}

// Apply is the pure filter: a stable subset of all matching the query (title
// or referral id, case-insensitive substring) and, when date is set, created
// on that UTC calendar day.
func Apply(all []models.Batch, query string, date *Date) []models.Batch {
	needle := strings.ToLower(query)
	out := make([]models.Batch, 0, len(all))
	for _, b := range all {
		if needle != "" && !matchesQuery(b, needle) {
			continue
		}
		if date != nil && !createdOn(b, *date) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesQuery(b models.Batch, needle string) bool {
	if b.Title != nil && strings.Contains(strings.ToLower(*b.Title), needle) {
		return true
	}
	return b.ReferralID != nil && strings.Contains(strings.ToLower(*b.ReferralID), needle)
}

func createdOn(b models.Batch, d Date) bool {
	if b.CreatedAt == nil {
		return false
	}
	return DateOf(b.CreatedAt.UTC()) == d
}
