package enums

import "fmt"

// ReservationKind distinguishes stock decrements from stock returns in reservation_history.
type ReservationKind string

const (
	ReservationKindReserve ReservationKind = "reserve"
	ReservationKindRelease ReservationKind = "release"
)

var validReservationKinds = []ReservationKind{
	ReservationKindReserve,
	ReservationKindRelease,
}

// IsValid reports whether the value is a known ReservationKind.
func (k ReservationKind) IsValid() bool {
	for _, candidate := range validReservationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseReservationKind converts raw input into a ReservationKind.
func ParseReservationKind(value string) (ReservationKind, error) {
	for _, candidate := range validReservationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation kind %q", value)
}
