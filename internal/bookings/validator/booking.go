package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"bokari/pkg/logger"
	"bokari/pkg/model"
)

var slotKeyRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}/([01]\d|2[0-3]):[0-5]\d-([01]\d|2[0-3]):[0-5]\d$`)

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

type BookingValidator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("slot_key", validateSlotKey); err != nil {
		log.Fatal("Failed to register 'slot_key' validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		log:      log,
	}
}

func (bv *BookingValidator) Validate(booking *model.Booking) error {
	return bv.translate(bv.validate.Struct(booking))
}

func (bv *BookingValidator) ValidateCustomer(customer *model.CustomerInfo) error {
	return bv.translate(bv.validate.Struct(customer))
}

// ValidateSlotKey checks the wire format of a slot identity string, e.g.
// "2025-03-10/09:00-10:00".
func (bv *BookingValidator) ValidateSlotKey(key string) error {
	if !slotKeyRegex.MatchString(key) {
		return ValidationErrors{{
			Field:   "slot",
			Message: "must match YYYY-MM-DD/HH:MM-HH:MM",
		}}
	}
	return nil
}

func (bv *BookingValidator) translate(err error) error {
	if err == nil {
		return nil
	}

	var out ValidationErrors
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			})
		}
		return out
	}
	return err
}

func validateSlotKey(fl validator.FieldLevel) bool {
	return slotKeyRegex.MatchString(fl.Field().String())
}
