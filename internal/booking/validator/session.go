package validator

import (
	"errors"
	"fmt"
	"strings"

	"fitbook/pkg/logger"
	"fitbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type SessionValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSessionValidator(log *logger.Logger) *SessionValidator {
	v := validator.New()

	log.Info("Session validator initialized successfully")

	return &SessionValidator{
		validate: v,
		logger:   log,
	}
}

func (v *SessionValidator) Validate(session *model.Session) error {
	if err := v.validate.Struct(session); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return translateValidationErrors(validationErrors)
		}
		return ValidationErrors{{Field: "session", Message: err.Error()}}
	}

	return v.validateEntitlementSource(session)
}

// validateEntitlementSource enforces the pairing between booking method and
// the source link the session carries.
func (v *SessionValidator) validateEntitlementSource(session *model.Session) error {
	var errs ValidationErrors

	switch session.BookingMethod {
	case model.MethodOneOff:
		if session.SourceCount() != 0 {
			errs = append(errs, ValidationError{
				Field:   "booking_method",
				Message: "one-off sessions must not reference a pack, subscription, or credit",
			})
		}
	case model.MethodPack:
		if session.SourcePackID == "" {
			errs = append(errs, ValidationError{
				Field:   "source_pack_id",
				Message: "pack sessions must reference the consumed pack",
			})
		}
		if session.SourceSubscription != "" || session.SourceCreditID != "" {
			errs = append(errs, ValidationError{
				Field:   "booking_method",
				Message: "pack sessions cannot also reference a subscription or credit",
			})
		}
	case model.MethodSubscription:
		if session.SourceSubscription == "" && session.SourceCreditID == "" {
			errs = append(errs, ValidationError{
				Field:   "source_subscription_id",
				Message: "subscription sessions must reference the subscription or a banked credit",
			})
		}
		if session.SourcePackID != "" {
			errs = append(errs, ValidationError{
				Field:   "booking_method",
				Message: "subscription sessions cannot also reference a pack",
			})
		}
	}

	if session.SourceCount() > 1 {
		errs = append(errs, ValidationError{
			Field:   "booking_method",
			Message: "a session consumes at most one entitlement source",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func translateValidationErrors(validationErrors validator.ValidationErrors) ValidationErrors {
	var errs ValidationErrors
	for _, err := range validationErrors {
		errs = append(errs, ValidationError{
			Field:   err.Field(),
			Message: messageForTag(err),
		})
	}
	return errs
}

func messageForTag(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "mongodb":
		return "must be a valid object id"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	default:
		return fmt.Sprintf("failed validation: %s", err.Tag())
	}
}
