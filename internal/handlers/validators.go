package handlers

import (
	"fmt"
	"sync"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// RegisterValidators adds the ledger's binding tags to gin's validator.
// decimal.Decimal fields are read directly; no custom type func is registered for them.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}
		for tag, fn := range map[string]validator.Func{
			"decimal_gt0":  decimalGreaterThanZero,
			"decimal_gte0": decimalNotNegative,
			"account_type": validAccountType,
		} {
			if err = v.RegisterValidation(tag, fn); err != nil {
				err = fmt.Errorf("failed to register %q: %w", tag, err)
				return
			}
		}
	})
	return err
}

func decimalGreaterThanZero(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && d.IsPositive()
}

func decimalNotNegative(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && !d.IsNegative()
}

func validAccountType(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(domain.AccountType)
	return ok && t.IsValid()
}
