package bidding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"haul-bidding/internal/biddingerrors"
	"haul-bidding/internal/models"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors is every field problem found in one input. It matches
// biddingerrors.ErrValidation under errors.Is.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) Is(target error) bool {
	return target == biddingerrors.ErrValidation
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	return v
}

func (s *BiddingService) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("service: %w - %v", biddingerrors.ErrValidation, err)
	}
	return translateValidationErrors(errs)
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		field := err.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min", "gte":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max", "lte":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", field, err.Param())
		case "latitude", "longitude":
			message = fmt.Sprintf("%s must be a valid %s", field, err.Tag())
		case "category":
			message = fmt.Sprintf("%s must be one of: furniture, appliances, bulk_items", field)
		}
		out = append(out, ValidationError{Field: field, Message: message})
	}
	return out
}
