// internal/api/handlers/validation.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"logiledger-api-server/internal/models"
)

// RegisterValidators adds the domain tags to gin's validator. It is safe to
// call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	if err := v.RegisterValidation("goodstype", validGoodsType); err != nil {
		return fmt.Errorf("register goodstype validator: %w", err)
	}
	return nil
}

func validGoodsType(fl validator.FieldLevel) bool {
	return models.ValidGoodsType(models.GoodsType(fl.Field().String()))
}

// bindingMessage turns a bind error into a client-facing message.
func bindingMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "goodstype":
		return "Invalid goods type"
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
