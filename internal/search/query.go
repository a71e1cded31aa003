// Package search turns catalog query parameters into store-neutral predicates,
// a sort order and a page window. Repositories translate a Query into their
// own dialect.
package search

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size when limit is absent or not a number.
	DefaultLimit = 10
	// MaxLimit caps the page size.
	MaxLimit = 100
)

// Field is a recipe attribute a clause or sort can reference. Values are the
// relational column names.
type Field string

const (
	FieldTitle       Field = "title"
	FieldIngredients Field = "ingredients"
	FieldSteps       Field = "steps"
	FieldCuisine     Field = "cuisine"
	FieldDietType    Field = "diet_type"
	FieldCookingTime Field = "cooking_time"
	FieldCreatedAt   Field = "created_at"
	FieldLikes       Field = "likes"
)

// Kind selects how a clause compares its term with a field.
type Kind int

const (
	// WordMatch matches the term as a whole word, ignoring case.
	WordMatch Kind = iota
	// ExactMatch matches the whole field value, ignoring case.
	ExactMatch
	// AtMost bounds a numeric field from above.
	AtMost
)

// Boundary is the word-boundary escape of a regex dialect.
type Boundary string

const (
	// PerlBoundary works for Go's regexp (SQLite REGEXP) and MongoDB.
	PerlBoundary Boundary = `\b`
	// PostgresBoundary is the ARE word boundary; `\b` means backspace there.
	PostgresBoundary Boundary = `\y`
)

// Clause is a single predicate. A record satisfies it when any of Fields
// satisfies the comparison.
type Clause struct {
	Fields []Field
	Kind   Kind
	Term   string
	Bound  int
}

// Pattern returns the clause's regex with the user term escaped as a literal.
// The case-insensitive flag is left to the caller's dialect.
func (c Clause) Pattern(b Boundary) string {
	quoted := regexp.QuoteMeta(c.Term)
	if c.Kind == ExactMatch {
		return "^" + quoted + "$"
	}
	return string(b) + quoted + string(b)
}

// Sort is a catalog sort option. Unknown values fall back to SortNewest.
type Sort string

const (
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
	SortLikes  Sort = "likes"
	SortTime   Sort = "time"
)

// Order is the primary sort key. Ties break on id ascending.
type Order struct {
	Field Field
	Desc  bool
}

// Params are the raw catalog query parameters.
type Params struct {
	Search      string `form:"search"`
	Cuisine     string `form:"cuisine"`
	DietType    string `form:"dietType"`
	Ingredients string `form:"ingredients"`
	MaxTime     string `form:"maxTime"`
	Sort        string `form:"sort"`
	Page        string `form:"page"`
	Limit       string `form:"limit"`
}

// Query is the result of Build. Clauses combine with AND.
type Query struct {
	Clauses []Clause
	Sort    Sort
	Page    int
	Limit   int
}

var searchFields = []Field{FieldTitle, FieldIngredients, FieldSteps, FieldCuisine, FieldDietType}

// Build never fails: unusable values are dropped or replaced by defaults.
func Build(p Params) Query {
	q := Query{
		Sort:  parseSort(p.Sort),
		Page:  parsePositive(p.Page, 1),
		Limit: parsePositive(p.Limit, DefaultLimit),
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	if term := strings.TrimSpace(p.Search); term != "" {
		q.Clauses = append(q.Clauses, Clause{Fields: searchFields, Kind: WordMatch, Term: term})
	}
	if term := strings.TrimSpace(p.DietType); term != "" {
		q.Clauses = append(q.Clauses, Clause{Fields: []Field{FieldDietType}, Kind: ExactMatch, Term: term})
	}
	for _, term := range SplitTerms(p.Ingredients) {
		q.Clauses = append(q.Clauses, Clause{Fields: []Field{FieldIngredients}, Kind: WordMatch, Term: term})
	}
	if term := strings.TrimSpace(p.Cuisine); term != "" {
		q.Clauses = append(q.Clauses, Clause{Fields: []Field{FieldCuisine}, Kind: WordMatch, Term: term})
	}
	if bound, ok := parseMaxTime(p.MaxTime); ok {
		q.Clauses = append(q.Clauses, Clause{Fields: []Field{FieldCookingTime}, Kind: AtMost, Bound: bound})
	}

	return q
}

// SplitTerms splits a comma-separated list, trimming and dropping empty terms.
func SplitTerms(s string) []string {
	var terms []string
	for _, part := range strings.Split(s, ",") {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// Order maps the sort option to its primary key.
func (q Query) Order() Order {
	switch q.Sort {
	case SortOldest:
		return Order{Field: FieldCreatedAt}
	case SortLikes:
		return Order{Field: FieldLikes, Desc: true}
	case SortTime:
		return Order{Field: FieldCookingTime}
	default:
		return Order{Field: FieldCreatedAt, Desc: true}
	}
}

// Offset is the number of records skipped before the page starts.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// TotalPages is ceil(total/limit), zero when nothing matched.
func (q Query) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(q.Limit)))
}

func parseSort(s string) Sort {
	switch sort := Sort(strings.ToLower(strings.TrimSpace(s))); sort {
	case SortOldest, SortLikes, SortTime:
		return sort
	default:
		return SortNewest
	}
}

func parsePositive(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	return n
}

func parseMaxTime(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt32 {
		f = math.MaxInt32
	}
	return int(math.Floor(f)), true
}
