package app

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hotel_catalog/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages overrides the generic text for specific field/rule pairs.
var fieldMessages = map[string]string{
	"name.required":            "The hotel name is required",
	"address_1.required":       "The address is required",
	"zip_code.required":        "The zip code is required",
	"city.required":            "The city is required",
	"country.required":         "The country is required",
	"longitude.required":       "The longitude is required",
	"longitude.min":            "The longitude must be between -180 and 180",
	"longitude.max":            "The longitude must be between -180 and 180",
	"latitude.required":        "The latitude is required",
	"latitude.min":             "The latitude must be between -90 and 90",
	"latitude.max":             "The latitude must be between -90 and 90",
	"description.max":          "The description may not be longer than 5000 characters",
	"max_capacity.required":    "The maximum capacity is required",
	"max_capacity.min":         "The maximum capacity must be at least 1",
	"max_capacity.max":         "The maximum capacity may not be greater than 200",
	"price_per_night.required": "The price per night is required",
	"price_per_night.min":      "The price per night must be positive",
	"price_per_night.max":      "The price per night may not be greater than 9999999.99",
}

func messageFor(fe validator.FieldError) string {
	if m, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required", fe.Field())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s may not be longer than %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("The %s is invalid", fe.Field())
}

// ValidateHotelInput normalizes in and checks it against the hotel rules.
func ValidateHotelInput(in *domain.HotelInput) error {
	in.Normalize()
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := domain.NewValidationError()
	for _, fe := range ves {
		out.Add(fe.Field(), messageFor(fe))
	}
	return out
}

// MaxPosition fits every dialect's position column.
const MaxPosition = math.MaxInt32

func validatePosition(pos *int) error {
	ve := domain.NewValidationError()
	switch {
	case pos == nil:
		ve.Add("position", "The position is required")
	case *pos < 0:
		ve.Add("position", "The position must be greater than or equal to 0")
	case *pos > MaxPosition:
		ve.Add("position", fmt.Sprintf("The position may not be greater than %d", MaxPosition))
	}
	return ve.OrNil()
}
