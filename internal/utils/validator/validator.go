// File: backend/services/auth-service/internal/utils/validator/validator.go
package validator

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/permissions"
)

// RegisterCustomValidators hooks the domain validations into gin's binding
// engine. Called once at startup.
func RegisterCustomValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("permission_action", validPermissionAction); err != nil {
		return fmt.Errorf("register permission_action validation: %w", err)
	}
	return nil
}

func validPermissionAction(fl validator.FieldLevel) bool {
	_, ok := permissions.ParseAction(fl.Field().String())
	return ok
}
