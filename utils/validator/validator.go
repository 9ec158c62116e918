package validatorx

import (
	"reflect"
	"regexp"
	"sync"

	gpvalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	v    *gpvalidator.Validate
	once sync.Once

	msisdnPattern = regexp.MustCompile(`^\+?[0-9]{10,13}$`)
)

// Init initializes the validator singleton (idempotent)
func Init() {
	once.Do(func() {
		v = gpvalidator.New()
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("msisdn", validateMSISDN)
	})
}

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	Init()
	return v.Struct(s)
}

// decimalValue lets numeric tags (gt, gte, required) apply to decimal.Decimal fields.
func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

// validateMSISDN accepts a mobile number written with digits only, optionally
// prefixed with '+'.
func validateMSISDN(fl gpvalidator.FieldLevel) bool {
	return msisdnPattern.MatchString(fl.Field().String())
}
