package customer

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"salon/internal/model"
)

// SortDirection orders customers by name.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection accepts "asc"/"ascending" and "desc"/"descending".
func ParseSortDirection(s string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	}
	return "", false
}

// Toggle flips the direction.
func (d SortDirection) Toggle() SortDirection {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// Collator compares names using locale rules. It is safe for concurrent use.
type Collator struct {
	mu sync.Mutex
	c  *collate.Collator
}

// NewCollator builds a collator for a BCP 47 tag; unknown tags fall back to
// the root locale.
func NewCollator(locale string) *Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return &Collator{c: collate.New(tag)}
}

// Compare returns -1, 0 or 1.
func (c *Collator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.CompareString(a, b)
}

// Filter keeps customers whose name contains search, ignoring case. An
// empty search keeps everyone. Order is preserved.
func Filter(customers []model.Customer, search string) []model.Customer {
	needle := strings.ToLower(search)
	out := make([]model.Customer, 0, len(customers))
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.CustomerName), needle) {
			out = append(out, c)
		}
	}
	return out
}

// Sort returns a copy ordered by name. Equal names keep their relative order.
func Sort(customers []model.Customer, dir SortDirection, col *Collator) []model.Customer {
	out := slices.Clone(customers)
	slices.SortStableFunc(out, func(a, b model.Customer) int {
		cmp := col.Compare(a.CustomerName, b.CustomerName)
		if dir == Descending {
			return -cmp
		}
		return cmp
	})
	return out
}

// View is what the customer list renders: a search string and an optional
// sort. A nil Sort keeps insertion order.
type View struct {
	Search string
	Sort   *SortDirection
}

// Apply filters and then, if requested, sorts.
func (v View) Apply(customers []model.Customer, col *Collator) []model.Customer {
	out := Filter(customers, v.Search)
	if v.Sort != nil {
		out = Sort(out, *v.Sort, col)
	}
	return out
}
