package coupon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the discount strategy of a coupon.
type Kind string

const (
	// KindPercentage takes a percentage of the subtotal.
	KindPercentage Kind = "percentage"
	// KindFixedAmount takes a flat amount off the subtotal, once per order.
	KindFixedAmount Kind = "fixedAmount"
)

var (
	// ErrInvalidRule is returned when a coupon definition cannot be used.
	ErrInvalidRule = errors.New("invalid coupon rule")
	// ErrDuplicateCode is returned when two rules share a code, ignoring case.
	ErrDuplicateCode = errors.New("duplicate coupon code")
)

// TagRequirement asks for a minimum number of units whose product name
// contains Keyword.
type TagRequirement struct {
	Keyword  string
	Quantity int
}

// Rule defines one coupon.
type Rule struct {
	Code             string
	Kind             Kind
	Value            decimal.Decimal
	MinAmount        *decimal.Decimal
	MinQuantityOfTag *TagRequirement
	Description      string
}

// Table is an immutable set of coupon rules keyed by case-insensitive code.
type Table struct {
	rules map[string]Rule
}

// NewTable validates rules and indexes them by code.
func NewTable(rules []Rule) (*Table, error) {
	t := &Table{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		r.Code = strings.TrimSpace(r.Code)
		if err := r.check(); err != nil {
			return nil, fmt.Errorf("coupon %q: %w", r.Code, err)
		}
		key := normalizeCode(r.Code)
		if _, exists := t.rules[key]; exists {
			return nil, fmt.Errorf("coupon %q: %w", r.Code, ErrDuplicateCode)
		}
		t.rules[key] = r
	}
	return t, nil
}

// Lookup finds the rule for code, ignoring case and surrounding spaces.
func (t *Table) Lookup(code string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	r, ok := t.rules[normalizeCode(code)]
	return r, ok
}

// Len reports how many coupons the table holds.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

func (r Rule) check() error {
	if r.Code == "" {
		return fmt.Errorf("code is required: %w", ErrInvalidRule)
	}
	if r.Value.IsNegative() {
		return fmt.Errorf("value must not be negative: %w", ErrInvalidRule)
	}
	switch r.Kind {
	case KindPercentage:
		if r.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("percentage above 100: %w", ErrInvalidRule)
		}
	case KindFixedAmount:
	default:
		return fmt.Errorf("unknown kind %q: %w", r.Kind, ErrInvalidRule)
	}
	if r.MinAmount != nil && r.MinAmount.IsNegative() {
		return fmt.Errorf("min amount must not be negative: %w", ErrInvalidRule)
	}
	if tag := r.MinQuantityOfTag; tag != nil {
		if strings.TrimSpace(tag.Keyword) == "" || tag.Quantity <= 0 {
			return fmt.Errorf("tag requirement needs a keyword and a positive quantity: %w", ErrInvalidRule)
		}
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
