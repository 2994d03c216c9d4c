package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/mailbite/internal/pkg/strcase"
)

var ErrTranslatorNotFound = errors.New("validator: english translator not found")

// customRules are string formats available as tags next to the builtin ones.
var customRules = []struct {
	tag     string
	pattern *regexp.Regexp
	message string
}{
	// handler types such as "order-confirmation"
	{"slug", regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`), "{0} must be lowercase words joined by hyphens"},
	// "en", "pt_BR" or "zh-Hant"
	{"langcode", regexp.MustCompile(`^[A-Za-z]{2,3}([_-][A-Za-z0-9]{2,8})*$`), "{0} must be a language code such as en or pt_BR"},
}

// V10ValidationError maps snake_case field names to messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, err := json.Marshal(map[string]string(vs))
	if err != nil {
		return "validation error"
	}
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string { return vs }

// V10Validator is the go-playground/validator implementation.
type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	lang := en.New()
	trans, ok := ut.New(lang, lang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := registerCustomRules(validate, trans); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, trans: trans}, nil
}

// Validate returns V10ValidationError when data breaks its tags. Other
// errors, such as a non-struct argument, are returned as is.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.trans)
	}
	return out
}

func registerCustomRules(validate *validator.Validate, trans ut.Translator) error {
	for _, rule := range customRules {
		err := validate.RegisterValidation(rule.tag, func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && rule.pattern.MatchString(s)
		})
		if err != nil {
			return err
		}

		err = validate.RegisterTranslation(rule.tag, trans,
			func(t ut.Translator) error { return t.Add(rule.tag, rule.message, false) },
			translateField,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func translateField(t ut.Translator, fe validator.FieldError) string {
	msg, err := t.T(fe.Tag(), fe.Field())
	if err != nil {
		slog.Warn("failed to translate validation error", "tag", fe.Tag(), "field", fe.Field(), "error", err)
		return fe.Error()
	}
	return msg
}
