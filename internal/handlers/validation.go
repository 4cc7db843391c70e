package handlers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/readyresponse/dispatch/internal/types"
)

var registerOnce sync.Once

// RegisterValidators adds the dispatch enums to gin's validator. Safe to
// call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			return types.IsSeverity(fl.Field().String())
		})
		_ = v.RegisterValidation("resource_status", func(fl validator.FieldLevel) bool {
			return types.IsResourceStatus(fl.Field().String())
		})
	})
}

// bindingMessage turns a binding error into a short client-facing message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "severity":
			parts = append(parts, fmt.Sprintf("%s must be one of %s", field, strings.Join(types.Severities, ", ")))
		case "resource_status":
			parts = append(parts, fmt.Sprintf("%s must be one of %s", field, strings.Join(types.ResourceStatuses, ", ")))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}
