package order

import "strings"

// allowedTransitions defines the status state machine. DELIVERED and CANCELLED
// are terminal; cancellation is not possible once the order has shipped.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPlaced: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseStatus validates a raw status token. Unknown tokens fail before any
// order lookup happens.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := allowedTransitions[s]; !ok {
		return "", validationErrorf("unknown order status %q", raw)
	}
	return s, nil
}

// CanTransition reports whether (from, to) is an allowed edge.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}
