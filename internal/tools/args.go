package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Models send numbers both as JSON numbers and as strings; these helpers accept either.

func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing argument %q", name)
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", fmt.Errorf("argument %q is empty", name)
		}
		return s, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("argument %q has unsupported type %T", name, v)
	}
}

func (a Args) Int(name string) (int, error) {
	d, err := a.Decimal(name)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("argument %q must be a whole number, got %s", name, d)
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) || d.LessThan(decimal.NewFromInt(math.MinInt32)) {
		return 0, fmt.Errorf("argument %q out of range: %s", name, d)
	}
	return int(d.IntPart()), nil
}

func (a Args) Decimal(name string) (decimal.Decimal, error) {
	s, err := a.String(name)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "₹"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("argument %q is not a number: %q", name, s)
	}
	return d, nil
}

// Optional returns the argument, or "" when it is absent.
func (a Args) Optional(name string) string {
	s, err := a.String(name)
	if err != nil {
		return ""
	}
	return s
}
