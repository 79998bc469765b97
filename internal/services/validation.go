package services

// File: internal/services/validation.go
// Purpose: Request validation with json field names and apperr mapping.

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"shelfsim-api-go/internal/apperr"
	"shelfsim-api-go/internal/models"
)

var cellCodePattern = regexp.MustCompile(`^[A-Z][0-9]{2}$`)

// Validator checks request payloads before they reach the store.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the custom rules and json field naming.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("cellcode", func(fl validator.FieldLevel) bool {
		return cellCodePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct validates obj and returns a VALIDATION_ERROR with per-field messages.
func (v *Validator) Struct(obj any) error {
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.BadRequest(fmt.Sprintf("validation error: %v", err))
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe)
		fields[name] = errorMessage(name, fe)
	}
	return apperr.Validation(fields)
}

// JobResultPatch validates the fields of patch that are present.
func (v *Validator) JobResultPatch(patch models.JobResultPatch) error {
	fields := map[string]string{}
	check := func(name string, value any, tag string) {
		if err := v.validate.Var(value, tag); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fields[name] = errorMessage(name, verrs[0])
				return
			}
			fields[name] = name + " is invalid"
		}
	}
	for name, o := range map[string]models.Optional[float64]{
		"travelTimeSec": patch.TravelTimeSec,
		"handleTimeSec": patch.HandleTimeSec,
		"totalTimeSec":  patch.TotalTimeSec,
	} {
		if val, ok := o.Get(); ok {
			check(name, val, "gte=0")
		}
	}
	if val, ok := patch.PathLengthCells.Get(); ok {
		check("pathLengthCells", val, "gte=0")
	}
	if models.NonEmpty(patch.Result) {
		val, _ := patch.Result.Get()
		check("result", val, "oneof=Success Failed")
	}
	for name, spec := range map[string]struct {
		o   models.Optional[string]
		tag string
	}{
		"failReason": {patch.FailReason, "max=500"},
		"errorCode":  {patch.ErrorCode, "max=50"},
		"robotName":  {patch.RobotName, "max=50"},
	} {
		if val, ok := spec.o.Get(); ok {
			check(name, val, spec.tag)
		}
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// fieldPath drops the root struct name from the namespace, leaving e.g.
// "jobs[0].cellCode".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func errorMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "cellcode":
		return fmt.Sprintf("%s must be one uppercase letter followed by two digits, e.g. A01", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// normalizePage applies list defaults to non-positive paging values.
func normalizePage(page, pageSize, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	return page, pageSize
}
