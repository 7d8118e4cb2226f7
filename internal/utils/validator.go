// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("eth_address", validateEthAddress)
	validate.RegisterValidation("uint_string", validateUintString)
	validate.RegisterTagNameFunc(jsonFieldName)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateEthAddress(fl validator.FieldLevel) bool {
	return IsValidAddress(fl.Field().String())
}

// uint_string accepts base-10 non-negative integers of any size, as used for
// wei amounts.
func validateUintString(fl validator.FieldLevel) bool {
	_, err := ParseUintString(fl.Field().String())
	return err == nil
}

// ParseUintString parses a non-negative integer and returns its canonical
// decimal form.
func ParseUintString(s string) (string, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return "", errors.New("not a base-10 unsigned integer")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "eth_address":
		return "Invalid " + e.Field() + " address"
	case "url":
		return "Invalid " + e.Field() + " URL"
	case "uint_string":
		return e.Field() + " must be a non-negative integer"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	default:
		return e.Field() + " is invalid"
	}
}
