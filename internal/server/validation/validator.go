// Package validation checks request DTOs against their struct-tag schemas
// and renders the first violation as a client message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/dto"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator wraps a configured validator.Validate and its English translator.
// It is safe for concurrent use.
type Validator struct {
	validate      *validator.Validate
	trans         ut.Translator
	maxAvatarSize int64
}

// New builds a Validator; uploads larger than maxAvatarSize bytes fail the
// avatarsize tag.
func New(maxAvatarSize int64) (*Validator, error) {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	v := &Validator{
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		trans:         trans,
		maxAvatarSize: maxAvatarSize,
	}

	v.validate.RegisterTagNameFunc(fieldLabel)

	if err := en_translations.RegisterDefaultTranslations(v.validate, trans); err != nil {
		return nil, fmt.Errorf("register default translations: %w", err)
	}
	if err := v.registerRules(); err != nil {
		return nil, err
	}
	if err := v.registerMessages(); err != nil {
		return nil, err
	}

	v.validate.RegisterStructValidation(updateHasField, dto.UpdateUserRequest{})

	return v, nil
}

// fieldLabel names a field in messages: the label tag verbatim when present,
// otherwise the quoted json name.
func fieldLabel(f reflect.StructField) string {
	if label := f.Tag.Get("label"); label != "" {
		return label
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		name = f.Name
	}
	return `"` + name + `"`
}

// Struct validates s and returns nil or a validation error carrying the
// message of the first violated rule.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return common.Validation(verrs[0].Translate(v.trans))
	}

	return common.Internal(err)
}
