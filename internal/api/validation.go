package api

import (
	"fmt"
	"sync"

	"asur-wears/internal/service"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// mustRegisterValidators adds the storefront tags used in binding rules
// to gin's validator. Binding panics on unknown tags, so this runs
// before any route is served.
func mustRegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic(fmt.Sprintf("unexpected validator engine %T", binding.Validator.Engine()))
		}
		if err := v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
			return service.ValidPincode(fl.Field().String())
		}); err != nil {
			panic(err)
		}
		if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return service.ValidPhone(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	})
}
