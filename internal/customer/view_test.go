package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salon/internal/model"
)

func names(cs []model.Customer) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.CustomerName
	}
	return out
}

func people(ns ...string) []model.Customer {
	out := make([]model.Customer, len(ns))
	for i, n := range ns {
		out[i] = model.Customer{ID: n, CustomerName: n}
	}
	return out
}

func TestFilter(t *testing.T) {
	all := people("Alice", "Bob", "Khalid", "Zara")

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"empty keeps everyone", "", []string{"Alice", "Bob", "Khalid", "Zara"}},
		{"substring anywhere", "ali", []string{"Alice", "Khalid"}},
		{"case insensitive", "ALI", []string{"Alice", "Khalid"}},
		{"no match", "xyz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Filter(all, tt.search)))
		})
	}
}

func TestSort(t *testing.T) {
	col := NewCollator("en")
	all := people("bob", "Alice", "Émile", "charlie")

	asc := Sort(all, Ascending, col)
	assert.Equal(t, []string{"Alice", "bob", "charlie", "Émile"}, names(asc))

	desc := Sort(all, Descending, col)
	assert.Equal(t, []string{"Émile", "charlie", "bob", "Alice"}, names(desc))

	// input untouched
	assert.Equal(t, []string{"bob", "Alice", "Émile", "charlie"}, names(all))
}

func TestSortIsStableForEqualNames(t *testing.T) {
	all := []model.Customer{
		{ID: "1", CustomerName: "Sam"},
		{ID: "2", CustomerName: "Amy"},
		{ID: "3", CustomerName: "Sam"},
	}
	out := Sort(all, Ascending, NewCollator("en"))
	assert.Equal(t, "2", out[0].ID)
	assert.Equal(t, "1", out[1].ID)
	assert.Equal(t, "3", out[2].ID)
}

func TestToggleTwiceRestoresDirection(t *testing.T) {
	assert.Equal(t, Descending, Ascending.Toggle())
	assert.Equal(t, Ascending, Descending.Toggle())
	assert.Equal(t, Ascending, Ascending.Toggle().Toggle())
}

func TestParseSortDirection(t *testing.T) {
	d, ok := ParseSortDirection("Descending")
	assert.True(t, ok)
	assert.Equal(t, Descending, d)

	d, ok = ParseSortDirection(" asc ")
	assert.True(t, ok)
	assert.Equal(t, Ascending, d)

	_, ok = ParseSortDirection("sideways")
	assert.False(t, ok)
}

func TestViewApply(t *testing.T) {
	col := NewCollator("en")
	all := people("Khalid", "Bob", "Alice")

	assert.Equal(t, []string{"Khalid", "Alice"}, names(View{Search: "ali"}.Apply(all, col)))

	asc := Ascending
	assert.Equal(t, []string{"Alice", "Khalid"}, names(View{Search: "ali", Sort: &asc}.Apply(all, col)))

	// toggling reverses distinct names
	desc := asc.Toggle()
	got := names(View{Sort: &desc}.Apply(all, col))
	assert.Equal(t, []string{"Khalid", "Bob", "Alice"}, got)
}
