package http

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// requestIDPattern is scope digit, mode letter, trip digit and six digits
var requestIDPattern = regexp.MustCompile(`^[01][FTBC][01][0-9]{6}$`)

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	if err := v.RegisterValidation("travelmode", validateTravelMode); err != nil {
		return err
	}
	return v.RegisterValidation("requestid", validateRequestID)
}

func validateTravelMode(fl validator.FieldLevel) bool {
	return entity.IsKnownTravelMode(int(fl.Field().Int()))
}

func validateRequestID(fl validator.FieldLevel) bool {
	return requestIDPattern.MatchString(fl.Field().String())
}

// bindingMessage turns validator output into one readable sentence
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body."
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "travelmode":
			parts = append(parts, fmt.Sprintf("%s must be a known travel mode", fe.Field()))
		case "requestid":
			parts = append(parts, fmt.Sprintf("%s is not a valid travel request id", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed '%s' validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ") + "."
}
