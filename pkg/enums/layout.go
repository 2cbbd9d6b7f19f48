package enums

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Layout selects the presentational template a storefront renders with.
type Layout string

const (
	LayoutClassic  Layout = "classic"
	LayoutModern   Layout = "modern"
	LayoutMinimal  Layout = "minimal"
	LayoutBoutique Layout = "boutique"
	LayoutShowcase Layout = "showcase"
)

// validLayouts is ordered by the numeric id the storefront API uses (1-based).
var validLayouts = []Layout{
	LayoutClassic,
	LayoutModern,
	LayoutMinimal,
	LayoutBoutique,
	LayoutShowcase,
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	return string(l)
}

// IsValid reports whether the value is a known Layout.
func (l Layout) IsValid() bool {
	for _, candidate := range validLayouts {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLayout converts a name or a 1-based numeric id into a Layout.
func ParseLayout(value string) (Layout, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validLayouts {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(validLayouts) {
		return validLayouts[n-1], nil
	}
	return "", fmt.Errorf("invalid layout %q", value)
}

// NormalizeLayout falls back to the classic layout for unknown values.
func NormalizeLayout(value string) Layout {
	layout, err := ParseLayout(value)
	if err != nil {
		return LayoutClassic
	}
	return layout
}

// UnmarshalJSON accepts a layout name, a numeric id, or null.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*l = NormalizeLayout(name)
		return nil
	}
	var id json.Number
	if err := json.Unmarshal(data, &id); err == nil {
		*l = NormalizeLayout(id.String())
		return nil
	}
	*l = LayoutClassic
	return nil
}
