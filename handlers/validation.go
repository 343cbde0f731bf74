package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"food-delivery-api/apperrors"
	"food-delivery-api/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// selfRegistrable are the roles a user may pick at sign-up. Support and
// admin accounts are created by an admin.
var selfRegistrable = models.NewRoleSet(models.RoleCustomer, models.RoleRestaurantOwner, models.RoleDriver)

// RegisterValidators installs the custom binding tags on gin's validator.
// It is safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		registerErr = errors.Join(
			v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
				st, ok := fl.Field().Interface().(models.OrderStatus)
				return ok && st.Valid()
			}),
			v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
				r, ok := fl.Field().Interface().(models.Role)
				return ok && r.Valid()
			}),
			v.RegisterValidation("selfrole", func(fl validator.FieldLevel) bool {
				r, ok := fl.Field().Interface().(models.Role)
				return ok && selfRegistrable.Has(r)
			}),
		)
	})
	return registerErr
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// bindJSON decodes and validates the body, turning failures into a BadRequest.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperrors.BadRequest(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param()
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "orderstatus":
		return field + " must be a valid order status"
	case "role":
		return field + " must be a valid role"
	case "selfrole":
		return field + " must be one of " + selfRegistrable.String()
	}
	return field + " is invalid"
}
