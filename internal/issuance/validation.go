package issuance

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ticket-backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalize trims the text fields and checks them together with the quantity bounds.
func (s *Service) normalize(req models.VerifyRequest) (models.VerifyRequest, int, error) {
	req.Reference = strings.TrimSpace(req.Reference)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				switch fe.Tag() {
				case "required":
					msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
				case "email":
					msgs = append(msgs, fmt.Sprintf("%s is not a valid email address", fe.Field()))
				default:
					msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
				}
			}
			return req, 0, fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
		}
		return req, 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	quantity := req.Quantity.Int()
	if quantity < 1 {
		return req, 0, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if s.MaxPerSale > 0 && quantity > s.MaxPerSale {
		return req, 0, fmt.Errorf("%w: quantity exceeds the maximum of %d tickets per sale", ErrValidation, s.MaxPerSale)
	}
	return req, quantity, nil
}
