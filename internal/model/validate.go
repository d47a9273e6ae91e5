package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// minuteKeyed records carry a minute_key that must equal MinuteKey(ts_ny).
type minuteKeyed interface {
	timestampAndKey() (time.Time, string)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("tzaware", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && IsTZAware(t)
	}); err != nil {
		panic(err)
	}
	v.RegisterStructValidation(minuteKeyLevel,
		BarRow{}, EntrySignal{}, Blocked{}, ExitSignal{}, Skip{})
	return v
}

func minuteKeyLevel(sl validator.StructLevel) {
	rec, ok := sl.Current().Interface().(minuteKeyed)
	if !ok {
		return
	}
	ts, key := rec.timestampAndKey()
	if !IsTZAware(ts) {
		return
	}
	if expected := MinuteKey(ts); key != expected {
		sl.ReportError(key, "minute_key", "MinuteKey", "minutekey", expected)
	}
}

// check runs the struct tags of rec and converts failures to a ValidationError.
func check(record string, rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%s: %w", record, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return invalid(record, problems...)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "tzaware":
		return fmt.Sprintf("%s must be timezone-aware datetime", field)
	case "minutekey":
		return fmt.Sprintf("%s must equal ts_ny-derived key: expected %s, got %v", field, fe.Param(), fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", field, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be > %s, got %v", field, fe.Param(), fe.Value())
	case "oneof", "eq":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
