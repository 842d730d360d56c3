package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/coupon"
)

type rawCoupon struct {
	Code        string `koanf:"code"`
	Type        string `koanf:"type"`
	Value       string `koanf:"value"`
	MinAmount   string `koanf:"min_amount"`
	Description string `koanf:"description"`
	TagQuantity *struct {
		Keyword  string `koanf:"keyword"`
		Quantity int    `koanf:"quantity"`
	} `koanf:"min_quantity_of_tag"`
}

// LoadCoupons reads the coupon table from a YAML file of the form
//
//	coupons:
//	  - code: LASER10
//	    type: percentage
//	    value: 10
//	    min_amount: 10000
func LoadCoupons(path string) ([]coupon.Rule, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load coupons: %w", err)
	}
	var raw []rawCoupon
	if err := k.Unmarshal("coupons", &raw); err != nil {
		return nil, fmt.Errorf("decode coupons: %w", err)
	}
	rules := make([]coupon.Rule, 0, len(raw))
	for i, rc := range raw {
		rule, err := rc.rule()
		if err != nil {
			return nil, fmt.Errorf("coupon #%d (%s): %w", i+1, rc.Code, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (rc rawCoupon) rule() (coupon.Rule, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(rc.Value))
	if err != nil {
		return coupon.Rule{}, fmt.Errorf("value: %w", err)
	}
	rule := coupon.Rule{
		Code:        strings.TrimSpace(rc.Code),
		Kind:        coupon.Kind(strings.TrimSpace(rc.Type)),
		Value:       value,
		Description: rc.Description,
	}
	if s := strings.TrimSpace(rc.MinAmount); s != "" {
		minAmount, err := decimal.NewFromString(s)
		if err != nil {
			return coupon.Rule{}, fmt.Errorf("min_amount: %w", err)
		}
		rule.MinAmount = &minAmount
	}
	if rc.TagQuantity != nil {
		rule.MinQuantityOfTag = &coupon.TagRequirement{
			Keyword:  strings.TrimSpace(rc.TagQuantity.Keyword),
			Quantity: rc.TagQuantity.Quantity,
		}
	}
	return rule, nil
}
