package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DobLayout is the dd/MM/yyyy format produced by the sign-up date picker.
const DobLayout = "02/01/2006"

var phonePattern = regexp.MustCompile(`^(0|\+84)[0-9]{9,10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("dob", func(fl validator.FieldLevel) bool {
		dob, err := time.Parse(DobLayout, fl.Field().String())
		return err == nil && dob.Before(time.Now())
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(UserCreateRequest)
		if req.Details.PhoneNum != req.Username {
			sl.ReportError(req.Details.PhoneNum, "Details.PhoneNum", "PhoneNum", "eqcsfield", "Username")
		}
	}, UserCreateRequest{})
	return v
}

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

// validationError flattens validator output into one readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+" failed "+fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

func isValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
