package app

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

// validationError converts ozzo field errors into a domain.ValidationError.
// Any other error is returned unchanged.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for name, fieldErr := range fieldErrs {
		if fieldErr != nil {
			fields[name] = fieldErr.Error()
		}
	}
	return domain.NewValidationError(fields)
}

// atLeastOne rejects present integer pointers below 1.
var atLeastOne = validation.By(func(value interface{}) error {
	q, ok := value.(*int)
	if !ok {
		return fmt.Errorf("must be an integer")
	}
	if q != nil && *q < 1 {
		return errors.New("must be at least 1")
	}
	return nil
})

var emailRules = []validation.Rule{validation.Required, is.EmailFormat}

// ValidateEmail applies the checkout email rules to a single address.
func ValidateEmail(email string) error {
	if err := validation.Validate(email, emailRules...); err != nil {
		return domain.NewValidationError(map[string]string{"email": err.Error()})
	}
	return nil
}
