// Package query compiles sparse request filters into parameterized SQL and
// runs count + page queries with a single, shared code path. Fragments and
// their bind values travel together as one unit, so the rendered placeholder
// order can never drift from the argument list.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the bind type a raw filter value must satisfy before it is
// included. Values that fail the check are treated as absent, not as errors.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindBool
	KindDate // calendar date, "2006-01-02"
	KindUUID
)

// Op is the comparison a schema field compiles to.
type Op int

const (
	// OpEqual binds the value verbatim: "col = $n".
	OpEqual Op = iota
	// OpEqualFold is a case-insensitive equality match.
	OpEqualFold
	// OpContains is a case-insensitive partial match; the value is wrapped
	// in wildcard markers.
	OpContains
	// OpSearch is OpContains expanded over several OR'd columns, binding
	// the same pattern once per column.
	OpSearch
	// OpDateFrom includes rows on or after the start of the given day.
	OpDateFrom
	// OpDateTo includes rows up to the end of the given day.
	OpDateTo
)

// Field declares how one named filter compiles: target column(s), comparison
// and bind type.
type Field struct {
	Column  string
	Columns []string // OpSearch only
	Op      Op
	Kind    Kind
}

// Schema maps filter names to their compilation rules.
type Schema map[string]Field

type cond struct {
	// fragment contains one %s verb per bind value; placeholders are
	// assigned left to right when the clause is rendered.
	fragment string
	args     []any
}

// Filter is an ordered conjunction of compiled predicate fragments.
type Filter struct {
	conds []cond
}

func New() *Filter {
	return &Filter{}
}

// And appends a hand-written fragment with one %s verb per argument. Used for
// predicates the schema cannot express, such as the scope intersection
// ("gn_id = ANY(%s)").
func (f *Filter) And(fragment string, args ...any) *Filter {
	f.conds = append(f.conds, cond{fragment: fragment, args: args})
	return f
}

// Compile builds a filter from raw request values against a schema. Absent,
// blank, and type-invalid values are skipped silently. Fields are processed
// in name order so the generated SQL is deterministic.
func Compile(schema Schema, values map[string]string) *Filter {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	f := New()
	for _, name := range names {
		field := schema[name]
		raw := strings.TrimSpace(values[name])
		if raw == "" {
			continue
		}

		value, ok := coerce(raw, field.Kind)
		if !ok {
			continue
		}

		switch field.Op {
		case OpEqual:
			f.And(field.Column+" = %s", value)
		case OpEqualFold:
			f.And("lower("+field.Column+") = lower(%s)", value)
		case OpContains:
			f.And("lower("+field.Column+") LIKE lower(%s)", "%"+raw+"%")
		case OpSearch:
			parts := make([]string, 0, len(field.Columns))
			args := make([]any, 0, len(field.Columns))
			for _, col := range field.Columns {
				parts = append(parts, "lower("+col+") LIKE lower(%s)")
				args = append(args, "%"+raw+"%")
			}
			f.And("("+strings.Join(parts, " OR ")+")", args...)
		case OpDateFrom:
			day := value.(time.Time)
			f.And(field.Column+" >= %s", day)
		case OpDateTo:
			day := value.(time.Time)
			f.And(field.Column+" < %s", day.AddDate(0, 0, 1))
		}
	}

	return f
}

func coerce(raw string, kind Kind) (any, bool) {
	switch kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		return n, true
	case KindBool:
		if raw != "true" && raw != "false" {
			return nil, false
		}
		return raw == "true", true
	case KindDate:
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return nil, false
		}
		return day, true
	case KindUUID:
		// A malformed id would fail uuid encoding at query time and turn
		// the whole listing into a storage error; drop it up front.
		if uuid.Validate(raw) != nil {
			return nil, false
		}
		return raw, true
	default:
		return raw, true
	}
}

// Empty reports whether no fragment was included.
func (f *Filter) Empty() bool {
	return f == nil || len(f.conds) == 0
}

// Clause renders the WHERE clause with positional placeholders starting at $1
// and the bind values in exactly the order the placeholders appear. The next
// free placeholder index is len(args)+1.
func (f *Filter) Clause() (string, []any) {
	if f.Empty() {
		return "", nil
	}

	parts := make([]string, 0, len(f.conds))
	args := make([]any, 0, len(f.conds))
	idx := 1

	for _, c := range f.conds {
		placeholders := make([]any, len(c.args))
		for i := range c.args {
			placeholders[i] = fmt.Sprintf("$%d", idx)
			idx++
		}
		parts = append(parts, fmt.Sprintf(c.fragment, placeholders...))
		args = append(args, c.args...)
	}

	return "WHERE " + strings.Join(parts, " AND "), args
}
