package model

import "fmt"

// InvalidOfferError reports a caller contract violation such as a negative
// price or an empty date range. Nothing is applied when it is returned.
type InvalidOfferError struct {
	Field  string
	Reason string
}

func (e *InvalidOfferError) Error() string {
	return fmt.Sprintf("invalid offer: %s %s", e.Field, e.Reason)
}
