package validation

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/accountkeeper/internal/server/dto"
	"github.com/go-playground/validator/v10"
)

const passwordSymbols = "!@#$%^&*"

const dateLayout = "2006-01-02"

var (
	avatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}
	avatarMimeTypes  = map[string]bool{"image/jpeg": true, "image/png": true, "image/gif": true}
)

// IsStrongPassword reports whether s has at least eight characters and
// contains a lowercase letter, an uppercase letter, a digit and one of
// !@#$%^&*.
func IsStrongPassword(s string) bool {
	if utf8.RuneCountInString(s) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// IsOtp reports whether s is 4 to 8 ASCII digits.
func IsOtp(s string) bool {
	if len(s) < 4 || len(s) > 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (v *Validator) registerRules() error {
	rules := map[string]validator.Func{
		"password": func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		},
		"otp": func(fl validator.FieldLevel) bool {
			return IsOtp(fl.Field().String())
		},
		"dateonly": func(fl validator.FieldLevel) bool {
			_, err := time.Parse(dateLayout, fl.Field().String())
			return err == nil
		},
		"datemin": func(fl validator.FieldLevel) bool {
			return compareDate(fl, func(d, bound time.Time) bool { return !d.Before(bound) })
		},
		"datemax": func(fl validator.FieldLevel) bool {
			return compareDate(fl, func(d, bound time.Time) bool { return !d.After(bound) })
		},
		"avatarext": func(fl validator.FieldLevel) bool {
			return avatarExtensions[strings.ToLower(filepath.Ext(fl.Field().String()))]
		},
		"avatarmime": func(fl validator.FieldLevel) bool {
			return avatarMimeTypes[fl.Field().String()]
		},
		"avatarsize": func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= v.maxAvatarSize
		},
	}

	for tag, fn := range rules {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func compareDate(fl validator.FieldLevel, ok func(d, bound time.Time) bool) bool {
	d, err := time.Parse(dateLayout, fl.Field().String())
	if err != nil {
		return false
	}
	bound, err := time.Parse(dateLayout, fl.Param())
	if err != nil {
		return false
	}
	return ok(d, bound)
}

// updateHasField requires at least one profile field in an update.
func updateHasField(sl validator.StructLevel) {
	req := sl.Current().Interface().(dto.UpdateUserRequest)
	if req.Name == "" && req.Email == "" && req.Status == "" && req.Dob == "" {
		sl.ReportError(req.Name, "value", "value", "atleastone", "")
	}
}
