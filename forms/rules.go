// Package forms declares the submitted forms and the rules that decide whether they are acceptable.
//
// Every field owns an ordered list of rules. Run evaluates each field on its own and stops at the
// first rule that fails for that field, so one submission reports at most one message per field
// but every failing field at once. Checks that need the store (is this username taken?) are not
// rules: they are Lookups, run afterwards and only for fields whose rules all passed.
package forms

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Kind distinguishes static rule failures from store-backed conflicts.
type Kind int

const (
	// KindRule is a failed presence, length, format or equality rule.
	KindRule Kind = iota
	// KindUniqueness is a value already present in the store.
	KindUniqueness
)

// FieldError is the rejection reason for a single field.
type FieldError struct {
	Field   string
	Message string
	Kind    Kind
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors maps field names to their rejection reason.
type Errors map[string]*FieldError

// Add records msg for field unless the field already failed.
func (e Errors) Add(field, msg string, kind Kind) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = &FieldError{Field: field, Message: msg, Kind: kind}
}

// Has reports whether field failed.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Message returns the rejection reason for field, or "".
func (e Errors) Message(field string) string {
	if fe, ok := e[field]; ok {
		return fe.Message
	}
	return ""
}

// Empty reports whether the submission was accepted.
func (e Errors) Empty() bool {
	return len(e) == 0
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e[k].Error())
	}
	return strings.Join(parts, "; ")
}

// Values is the raw submitted input keyed by field name.
type Values map[string]string

// Rule is one predicate with the message shown when it fails.
type Rule struct {
	Check   func(value string, all Values) bool
	Message string
}

// Field is a named input with its rules in evaluation order.
type Field struct {
	Name  string
	Rules []Rule
}

// Run applies the rules of every field and collects the first failure of each.
func Run(fields []Field, values Values) Errors {
	errs := Errors{}
	for _, f := range fields {
		v := values[f.Name]
		for _, r := range f.Rules {
			if !r.Check(v, values) {
				errs.Add(f.Name, r.Message, KindRule)
				break
			}
		}
	}
	return errs
}

// Lookup is a validation step with an external side effect: it queries the store.
// It must be re-run on every submission.
type Lookup struct {
	Field   string
	Taken   func(ctx context.Context, value string) (bool, error)
	Message string
}

// RunLookups queries the store for every field that passed its rules.
// A lookup that cannot be answered aborts validation with the store error.
func RunLookups(ctx context.Context, lookups []Lookup, values Values, errs Errors) error {
	for _, l := range lookups {
		if errs.Has(l.Field) {
			continue
		}
		taken, err := l.Taken(ctx, values[l.Field])
		if err != nil {
			return fmt.Errorf("lookup %s: %w", l.Field, err)
		}
		if taken {
			errs.Add(l.Field, l.Message, KindUniqueness)
		}
	}
	return nil
}

const (
	MsgRequired = "This field is required."
	MsgEmail    = "Invalid email address."
)

// Required rejects values that are empty after trimming whitespace.
func Required() Rule {
	return Rule{
		Check:   func(v string, _ Values) bool { return strings.TrimSpace(v) != "" },
		Message: MsgRequired,
	}
}

// Length bounds the number of characters. A negative bound is not checked.
func Length(min, max int) Rule {
	var msg string
	switch {
	case min >= 0 && max >= 0:
		msg = fmt.Sprintf("Field must be between %d and %d characters long.", min, max)
	case min >= 0:
		msg = fmt.Sprintf("Field must be at least %d characters long.", min)
	default:
		msg = fmt.Sprintf("Field cannot be longer than %d characters.", max)
	}
	return Rule{
		Check: func(v string, _ Values) bool {
			n := utf8.RuneCountInString(v)
			if min >= 0 && n < min {
				return false
			}
			if max >= 0 && n > max {
				return false
			}
			return true
		},
		Message: msg,
	}
}

// MaxLength is Length(-1, max).
func MaxLength(max int) Rule { return Length(-1, max) }

// MinLength is Length(min, -1).
func MinLength(min int) Rule { return Length(min, -1) }

var validate = validator.New()

// Email checks address syntax.
func Email() Rule {
	return Rule{
		Check:   func(v string, _ Values) bool { return validate.Var(v, "required,email") == nil },
		Message: MsgEmail,
	}
}

// EqualTo requires the value to match another field of the same submission.
func EqualTo(other string) Rule {
	return Rule{
		Check:   func(v string, all Values) bool { return v == all[other] },
		Message: "Field must be equal to " + other + ".",
	}
}
