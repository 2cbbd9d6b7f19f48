package types

import "strings"

// Address is a structured Brazilian delivery address.
type Address struct {
	Street     string `json:"street" validate:"required,max=200"`
	Number     string `json:"number" validate:"required,max=20"`
	Complement string `json:"complement,omitempty" validate:"max=120"`
	District   string `json:"district" validate:"required,max=120"`
	City       string `json:"city" validate:"required,max=120"`
	State      string `json:"state" validate:"required,len=2,alpha"`
	PostalCode string `json:"postal_code" validate:"required,len=8,numeric"`
}

// Normalize trims every field, upper-cases the state and strips non-digits
// from the postal code.
func (a Address) Normalize() Address {
	return Address{
		Street:     strings.TrimSpace(a.Street),
		Number:     strings.TrimSpace(a.Number),
		Complement: strings.TrimSpace(a.Complement),
		District:   strings.TrimSpace(a.District),
		City:       strings.TrimSpace(a.City),
		State:      strings.ToUpper(strings.TrimSpace(a.State)),
		PostalCode: OnlyDigits(a.PostalCode),
	}
}

// WithLocked overwrites the lookup-derived fields with the resolved values.
// Fields the lookup left empty keep the current value.
func (a Address) WithLocked(resolved Address) Address {
	if resolved.Street != "" {
		a.Street = resolved.Street
	}
	if resolved.District != "" {
		a.District = resolved.District
	}
	if resolved.City != "" {
		a.City = resolved.City
	}
	if resolved.State != "" {
		a.State = resolved.State
	}
	return a
}

// LookupFields names the lookup-derived fields that carry a value. City-wide
// postal codes resolve without street and district.
func (a Address) LookupFields() []string {
	fields := make([]string, 0, 4)
	if a.Street != "" {
		fields = append(fields, "street")
	}
	if a.District != "" {
		fields = append(fields, "district")
	}
	if a.City != "" {
		fields = append(fields, "city")
	}
	if a.State != "" {
		fields = append(fields, "state")
	}
	return fields
}

// WithoutLookup clears the lookup-derived fields.
func (a Address) WithoutLookup() Address {
	a.Street, a.District, a.City, a.State = "", "", "", ""
	return a
}
