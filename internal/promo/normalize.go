package promo

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Record is a promotion row as the catalog delivers it: loosely typed, with
// fields that only make sense for some types and scopes.
type Record struct {
	ID              string           `json:"id" validate:"required"`
	Type            string           `json:"type" validate:"required,oneof=percentage fixedAmount specialPrice freeShipping"`
	Value           *decimal.Decimal `json:"value"`
	Scope           string           `json:"scope" validate:"required,oneof=all category product"`
	CategoryFilter  string           `json:"category_filter"`
	ProductIDFilter string           `json:"product_id_filter"`
	StartDate       string           `json:"start_date"`
	EndDate         string           `json:"end_date"`
	Active          bool             `json:"active"`
	Priority        int              `json:"priority"`
	BadgeText       string           `json:"badge_text"`
	BadgeColor      string           `json:"badge_color"`
	BadgeTextColor  string           `json:"badge_text_color"`
}

// Rejection reasons, also used as metric labels.
const (
	ReasonStructure = "structure"
	ReasonValue     = "value"
	ReasonDate      = "date"
)

// Rejection describes a record dropped during normalisation.
type Rejection struct {
	ID     string
	Reason string
	Detail string
}

var (
	errValueMissing  = errors.New("value is required")
	errValueNegative = errors.New("value must not be negative")
	errPercentRange  = errors.New("percentage must be within [0,100]")
	errWindowOrder   = errors.New("end_date is before start_date")
)

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize converts raw records into promotions. Malformed records are left
// out and reported as rejections; Normalize itself never fails. Zone-less
// dates are read in loc (UTC when nil).
func Normalize(records []Record, loc *time.Location) ([]Promotion, []Rejection) {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Promotion, 0, len(records))
	var rejected []Rejection
	for _, rec := range records {
		p, rej := normalizeRecord(rec, loc)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		out = append(out, p)
	}
	return out, rejected
}

func normalizeRecord(rec Record, loc *time.Location) (Promotion, *Rejection) {
	rec.ID = strings.TrimSpace(rec.ID)
	rec.Type = strings.TrimSpace(rec.Type)
	rec.Scope = strings.ToLower(strings.TrimSpace(rec.Scope))

	if err := recordValidator.Struct(rec); err != nil {
		return Promotion{}, &Rejection{ID: rec.ID, Reason: ReasonStructure, Detail: describeValidation(err)}
	}

	effect, err := effectFor(Kind(rec.Type), rec.Value)
	if err != nil {
		return Promotion{}, &Rejection{ID: rec.ID, Reason: ReasonValue, Detail: err.Error()}
	}

	window, err := windowFor(rec.StartDate, rec.EndDate, loc)
	if err != nil {
		return Promotion{}, &Rejection{ID: rec.ID, Reason: ReasonDate, Detail: err.Error()}
	}

	return Promotion{
		ID:       rec.ID,
		Effect:   effect,
		Scope:    scopeFor(rec.Scope, rec.CategoryFilter, rec.ProductIDFilter),
		Window:   window,
		Active:   rec.Active,
		Priority: rec.Priority,
		Badge: BadgeStyle{
			Text:      strings.TrimSpace(rec.BadgeText),
			Color:     strings.TrimSpace(rec.BadgeColor),
			TextColor: strings.TrimSpace(rec.BadgeTextColor),
		},
	}, nil
}

func effectFor(kind Kind, value *decimal.Decimal) (Effect, error) {
	if kind == KindFreeShipping {
		return FreeShipping{}, nil
	}
	if value == nil {
		return nil, errValueMissing
	}
	if value.IsNegative() {
		return nil, errValueNegative
	}
	switch kind {
	case KindPercentage:
		if value.GreaterThan(hundred) {
			return nil, errPercentRange
		}
		return PercentOff{Percent: *value}, nil
	case KindFixedAmount:
		return AmountOff{Amount: *value}, nil
	case KindSpecialPrice:
		return SpecialPrice{Price: *value}, nil
	}
	return nil, fmt.Errorf("unknown type %q", kind)
}

// scopeFor never fails: a narrowed scope without its filter matches nothing.
func scopeFor(scope, category, productID string) Scope {
	switch scope {
	case "category":
		return InCategory{Category: strings.TrimSpace(category)}
	case "product":
		return ForProduct{ProductID: strings.TrimSpace(productID)}
	default:
		return AllProducts{}
	}
}

func windowFor(start, end string, loc *time.Location) (Window, error) {
	var (
		w   Window
		err error
	)
	if w.Start, err = parseBound(start, loc, false); err != nil {
		return Window{}, fmt.Errorf("start_date: %w", err)
	}
	if w.End, err = parseBound(end, loc, true); err != nil {
		return Window{}, fmt.Errorf("end_date: %w", err)
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return Window{}, errWindowOrder
	}
	return w, nil
}

const dateOnly = "2006-01-02"

var zonedLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999Z07"}

var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// parseBound reads an optional window bound. A date-only end bound covers
// the whole day.
func parseBound(raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	t, err := time.ParseInLocation(dateOnly, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
