package listing

import (
	"cmp"
	"time"

	"golang.org/x/text/collate"

	"github.com/desertthunder/reeladmin/internal/models"
)

// Comparator orders two records ascending.
type Comparator[T any] func(c *collate.Collator, a, b T) int

// Field is a sortable column.
type Field[T any] struct {
	Name string
	// DefaultOrder is applied when the field is first selected.
	DefaultOrder Order
	Compare      Comparator[T]
}

// Schema describes how a resource family is searched, faceted and sorted.
type Schema[T any] struct {
	Resource string
	// Keep drops records that are never listed. Nil keeps everything.
	Keep func(T) bool
	// Search lists the fields matched case-insensitively against the search term.
	Search []func(T) string
	// Category reports whether a record belongs to a facet value. Nil means no facet.
	Category func(item T, value string) bool
	// Categories lists the facet values present in a collection.
	Categories func(items []T) []string
	Fields     []Field[T]
	// DefaultSort and DefaultOrder form the initial view.
	DefaultSort  string
	DefaultOrder Order
}

// Field looks up a sortable field by name.
func (s Schema[T]) Field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// FieldNames lists the sortable fields in declaration order.
func (s Schema[T]) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// InitialView returns the view a screen starts with.
func (s Schema[T]) InitialView() ViewState {
	return ViewState{SortField: s.DefaultSort, SortOrder: s.DefaultOrder, CurrentPage: 1}
}

// Text compares strings with locale-aware collation.
func Text[T any](get func(T) string) Comparator[T] {
	return func(c *collate.Collator, a, b T) int {
		return c.CompareString(get(a), get(b))
	}
}

// Number compares numeric values.
func Number[T any, N cmp.Ordered](get func(T) N) Comparator[T] {
	return func(_ *collate.Collator, a, b T) int {
		return cmp.Compare(get(a), get(b))
	}
}

// Time compares timestamps. Zero times sort first.
func Time[T any](get func(T) time.Time) Comparator[T] {
	return func(_ *collate.Collator, a, b T) int {
		return get(a).Compare(get(b))
	}
}

// Identifier compares ids such as "USR-0042" by their numeric part, falling back to collation.
// Ids carrying digits sort before ids without any.
func Identifier[T any](get func(T) string) Comparator[T] {
	return func(c *collate.Collator, a, b T) int {
		ia, ib := get(a), get(b)
		na, okA := models.NumericPart(ia)
		nb, okB := models.NumericPart(ib)

		switch {
		case okA && okB:
			if r := cmp.Compare(na, nb); r != 0 {
				return r
			}
		case okA:
			return -1
		case okB:
			return 1
		}
		return c.CompareString(ia, ib)
	}
}

// Movies: search by title, facet by genre, sort by title or year.
var Movies = Schema[models.Movie]{
	Resource: "movies",
	Search: []func(models.Movie) string{
		func(m models.Movie) string { return m.Title },
	},
	Category:   func(m models.Movie, genre string) bool { return m.HasGenre(genre) },
	Categories: models.Genres,
	Fields: []Field[models.Movie]{
		{Name: "title", DefaultOrder: Asc, Compare: Text(func(m models.Movie) string { return m.Title })},
		{Name: "year", DefaultOrder: Asc, Compare: Number(func(m models.Movie) int { return m.Year })},
	},
	DefaultSort:  "title",
	DefaultOrder: Asc,
}

// Users: search by name, email and id; sort by full name, email, contact or id.
var Users = Schema[models.User]{
	Resource: "users",
	Search: []func(models.User) string{
		func(u models.User) string { return u.FirstName },
		func(u models.User) string { return u.LastName },
		func(u models.User) string { return u.Email },
		func(u models.User) string { return u.UserID },
	},
	Fields: []Field[models.User]{
		{Name: "name", DefaultOrder: Asc, Compare: Text(models.User.FullName)},
		{Name: "email", DefaultOrder: Asc, Compare: Text(func(u models.User) string { return u.Email })},
		{Name: "contact", DefaultOrder: Asc, Compare: Text(func(u models.User) string { return u.Contact })},
		{Name: "userId", DefaultOrder: Asc, Compare: Identifier(func(u models.User) string { return u.UserID })},
	},
	DefaultSort:  "name",
	DefaultOrder: Asc,
}

// Payments: search by user id; sort by amount or date, newest and largest first.
// Payments without a user id are hidden.
var Payments = Schema[models.Payment]{
	Resource: "payments",
	Keep:     func(p models.Payment) bool { return p.UserID != "" },
	Search: []func(models.Payment) string{
		func(p models.Payment) string { return p.UserID },
	},
	Fields: []Field[models.Payment]{
		{Name: "amount", DefaultOrder: Desc, Compare: Number(func(p models.Payment) float64 { return p.Amount })},
		{Name: "date", DefaultOrder: Desc, Compare: Time(models.Payment.Time)},
	},
	DefaultSort:  "date",
	DefaultOrder: Desc,
}

// Messages: search by sender and body; sort by name, email or submission time.
var Messages = Schema[models.ContactMessage]{
	Resource: "messages",
	Search: []func(models.ContactMessage) string{
		func(m models.ContactMessage) string { return m.Name },
		func(m models.ContactMessage) string { return m.Email },
		func(m models.ContactMessage) string { return m.Message },
	},
	Fields: []Field[models.ContactMessage]{
		{Name: "name", DefaultOrder: Asc, Compare: Text(func(m models.ContactMessage) string { return m.Name })},
		{Name: "email", DefaultOrder: Asc, Compare: Text(func(m models.ContactMessage) string { return m.Email })},
		{Name: "createdAt", DefaultOrder: Asc, Compare: Time(models.ContactMessage.Created)},
	},
	DefaultSort:  "createdAt",
	DefaultOrder: Asc,
}
