package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Actor 執行操作的使用者
type Actor struct {
	UserID  uint
	IsStaff bool
}

func requireStaff(actor Actor, action string) error {
	if !actor.IsStaff {
		return permissionErr("%s requires staff", action)
	}
	return nil
}

// validateStruct 把 validator 的錯誤整理成 ErrValidation
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationErr("%v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
	}
	return validationErr("invalid fields: %s", strings.Join(fields, ", "))
}
