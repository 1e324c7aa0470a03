package lib

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var Validate *validator.Validate = NewValidator(afero.NewOsFs())

var (
	reBIC      = regexp.MustCompile("^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$")
	reCurrency = regexp.MustCompile("^[A-Z]{3}$")
	reIBAN     = regexp.MustCompile("^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$")
)

func NewValidator(fs afero.Fs) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("abspath", func(fl validator.FieldLevel) bool {
		return IsAbs(fl.Field().String())
	})
	v.RegisterValidation("validid", func(fl validator.FieldLevel) bool {
		return IsValidID(fl.Field().String())
	})
	v.RegisterValidation("dir", func(fl validator.FieldLevel) bool {
		exist, _ := afero.DirExists(fs, fl.Field().String())
		return exist
	})
	v.RegisterValidation("appguid", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("uri", func(fl validator.FieldLevel) bool {
		return IsURI(fl.Field().String())
	})
	v.RegisterValidation("bic", func(fl validator.FieldLevel) bool {
		return reBIC.MatchString(fl.Field().String())
	})
	v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return reCurrency.MatchString(fl.Field().String())
	})
	v.RegisterValidation("iban", func(fl validator.FieldLevel) bool {
		return IsIBAN(fl.Field().String())
	})

	return v
}

// IsIBAN checks format and mod-97 checksum of iban
func IsIBAN(s string) bool {
	s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if !reIBAN.MatchString(s) {
		return false
	}
	s = s[4:] + s[:4]
	digits := strings.Builder{}
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(big.NewInt(int64(r-'A'+10)).String())
			continue
		}
		digits.WriteRune(r)
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}
