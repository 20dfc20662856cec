package middleware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "jpxcli/internal/errors"
	"jpxcli/pkg/contracts/domain"
)

// Validator decodes JSON request bodies and checks their struct tags.
type Validator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewValidator creates a validator with the report-specific tags registered:
// yymm (contract month), isodate (YYYY-MM-DD) and option_side (PUT or CALL).
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("yymm", isContractMonth)
	v.RegisterValidation("isodate", isISODate)
	v.RegisterValidation("option_side", isOptionSide)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validator: v,
		logger:    logger.With(slog.String("component", "validator")),
	}
}

// DecodeJSON reads the request body into dst and validates it.
func (m *Validator) DecodeJSON(r *http.Request, dst interface{}) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apierrors.ErrPayloadTooLarge
		case errors.Is(err, io.EOF):
			return apierrors.New(http.StatusBadRequest, "INVALID_REQUEST", "Request body is empty")
		}
		m.logger.DebugContext(r.Context(), "failed to decode request body",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())))
		return apierrors.InvalidRequestWithError(err)
	}
	return m.ValidateStruct(dst)
}

// ValidateStruct validates a struct and returns validation errors
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fieldPath(fe),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "yymm":
		return fmt.Sprintf("%s must be a contract month in YYMM form", field)
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	case "option_side":
		return fmt.Sprintf("%s must be PUT or CALL", field)
	case "required_without":
		return fmt.Sprintf("%s is required when %s is missing", field, param)
	case "excluded_with":
		return fmt.Sprintf("%s must be empty when %s is given", field, param)
	case "unique":
		return fmt.Sprintf("%s must not repeat values", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// Custom validators

func isContractMonth(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 4 {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	month := (s[2]-'0')*10 + (s[3] - '0')
	return month >= 1 && month <= 12
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(domain.DateLayout, fl.Field().String())
	return err == nil
}

func isOptionSide(fl validator.FieldLevel) bool {
	t, err := domain.ParseInstrumentType(fl.Field().String())
	return err == nil && t.IsOption()
}
