package validation

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// messages overrides the default English texts so every violation reads the
// same way across flows. {0} is the field label, {1} the tag parameter.
var messages = map[string]string{
	"required":   "{0} is required",
	"email":      "{0} must be a valid email",
	"min":        "{0} length must be at least {1} characters long",
	"max":        "{0} length must be less than or equal to {1} characters long",
	"oneof":      "{0} must be one of [{1}]",
	"eqfield":    "{0} must match Password",
	"password":   "{0} is invalid",
	"otp":        "{0} is invalid",
	"dateonly":   "{0} must be in YYYY-MM-DD format",
	"datemin":    `{0} must be greater than or equal to "{1}"`,
	"datemax":    `{0} must be less than or equal to "{1}"`,
	"avatarext":  "File must be an image (jpg, jpeg, png, gif) or document (pdf, doc, docx)",
	"avatarmime": "Invalid file type",
	"avatarsize": "File size must be less than 10MB",
	"atleastone": `"value" must contain at least one of [name, email, status, dob]`,
}

func (v *Validator) registerMessages() error {
	for tag, text := range messages {
		err := v.validate.RegisterTranslation(tag, v.trans,
			func(trans ut.Translator) error {
				return trans.Add(tag, text, true)
			},
			translate,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func translate(trans ut.Translator, fe validator.FieldError) string {
	param := fe.Param()
	if fe.Tag() == "oneof" {
		param = joinOneOf(param)
	}
	msg, err := trans.T(fe.Tag(), fe.Field(), param)
	if err != nil {
		return fe.Error()
	}
	return msg
}

// joinOneOf turns the space separated oneof parameter into "a, b".
func joinOneOf(param string) string {
	return strings.Join(strings.Fields(param), ", ")
}
