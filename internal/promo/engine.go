package promo

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultCodes is the storefront's built-in code table. FREESHIP is listed with
// 0 percent and therefore behaves like an unknown code.
func DefaultCodes() map[string]int {
	return map[string]int{
		"SAVE10":         10,
		"SAVE15":         15,
		"FREESHIP":       0,
		"OMNIA_ELSHEIKH": 70,
	}
}

// Engine validates promo codes against a fixed table.
type Engine struct {
	codes map[string]int
}

// NewEngine copies codes, normalizing keys. Percentages outside 0..100 are rejected.
func NewEngine(codes map[string]int) (*Engine, error) {
	table := make(map[string]int, len(codes))
	for code, percent := range codes {
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("promo code %q: percent %d outside 0..100", code, percent)
		}
		key := Normalize(code)
		if key == "" {
			return nil, fmt.Errorf("promo code table contains an empty code")
		}
		table[key] = percent
	}
	return &Engine{codes: table}, nil
}

// Validate returns the discount percent for code, or 0 when the code is unknown.
func (e *Engine) Validate(code string) int {
	key := Normalize(code)
	if key == "" {
		return 0
	}
	return e.codes[key]
}

// Codes lists the known codes in alphabetical order.
func (e *Engine) Codes() []string {
	out := make([]string, 0, len(e.codes))
	for code := range e.codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
