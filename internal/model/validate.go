package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator() //nolint:gochecknoglobals // skip

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateOffer checks the price and date contract of an offer. The returned
// error is always an *InvalidOfferError.
func ValidateOffer(o Offer) error {
	if o == nil {
		return &InvalidOfferError{Field: "offer", Reason: "is missing"}
	}
	if err := validate.Struct(o); err != nil {
		return fromValidation(err)
	}
	start, end := o.Period()
	if start.IsZero() || end.IsZero() {
		return &InvalidOfferError{Field: "dates", Reason: "start and end are required"}
	}
	if !end.After(start.Time) {
		return &InvalidOfferError{Field: "dates", Reason: "end must be after start"}
	}
	return nil
}

// ValidateValueConfig checks threshold ordering, family size and budgets.
func ValidateValueConfig(c ValueConfig) error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return errors.New("value config: " + ve[0].Namespace() + " failed " + ve[0].Tag())
		}
		return err
	}
	return nil
}

func fromValidation(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &InvalidOfferError{Field: "offer", Reason: err.Error()}
	}
	fe := ve[0]
	reason := "failed " + fe.Tag()
	if fe.Tag() == "gte" && fe.Param() == "0" {
		reason = "must not be negative"
	}
	return &InvalidOfferError{Field: fe.Field(), Reason: reason}
}
