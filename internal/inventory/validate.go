package inventory

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NewValidator returns a validator that understands decimal amounts.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	v.RegisterStructValidation(validateInputPrice, ProductInput{})
	v.RegisterStructValidation(validatePatchPrice, ProductPatch{})
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// decimalValue lets numeric tags (gte, lte...) work on decimal.Decimal fields.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// MaxPrice is the smallest amount the catalog's price column (numeric(14,2)) cannot hold.
var MaxPrice = decimal.New(1, 12)

// PriceScale is the number of fractional digits a price may carry.
const PriceScale = 2

// PriceFits reports whether d can be stored remotely without rounding or overflow.
// Negative amounts are left to the gte rule.
func PriceFits(d decimal.Decimal) bool {
	return d.IsNegative() || (d.LessThan(MaxPrice) && d.Equal(d.Truncate(PriceScale)))
}

func validateInputPrice(sl validator.StructLevel) {
	in := sl.Current().Interface().(ProductInput)
	if !PriceFits(in.Price) {
		sl.ReportError(in.Price, "price", "Price", "price", "")
	}
}

func validatePatchPrice(sl validator.StructLevel) {
	patch := sl.Current().Interface().(ProductPatch)
	if patch.Price != nil && !PriceFits(*patch.Price) {
		sl.ReportError(*patch.Price, "price", "Price", "price", "")
	}
}

var defaultValidator = NewValidator()

// ValidateProduct checks a full record, typically one decoded from a remote payload.
func ValidateProduct(p Product) error {
	return validateStruct(defaultValidator, p)
}

// validateStruct runs v against s and converts field failures into a *ValidationError.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
