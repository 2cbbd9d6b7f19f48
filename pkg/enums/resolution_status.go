package enums

import "fmt"

// ResolutionStatus is the postal code resolution state of a checkout.
type ResolutionStatus string

const (
	ResolutionIdle              ResolutionStatus = "idle"
	ResolutionResolvingAddress  ResolutionStatus = "resolving_address"
	ResolutionResolvingShipping ResolutionStatus = "resolving_shipping"
	ResolutionResolved          ResolutionStatus = "resolved"
	ResolutionError             ResolutionStatus = "error"
)

var validResolutionStatuses = []ResolutionStatus{
	ResolutionIdle,
	ResolutionResolvingAddress,
	ResolutionResolvingShipping,
	ResolutionResolved,
	ResolutionError,
}

// String implements fmt.Stringer.
func (s ResolutionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ResolutionStatus.
func (s ResolutionStatus) IsValid() bool {
	for _, candidate := range validResolutionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// AddressResolved reports whether the address lookup already succeeded.
func (s ResolutionStatus) AddressResolved() bool {
	return s == ResolutionResolvingShipping || s == ResolutionResolved
}

// ParseResolutionStatus converts raw input into a ResolutionStatus.
func ParseResolutionStatus(value string) (ResolutionStatus, error) {
	for _, candidate := range validResolutionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resolution status %q", value)
}
