package core

import (
	"database/sql/driver"
	"reflect"
	"regexp"
	"strings"
	"time"

	english "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/volatiletech/null/v8"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	dateOnlyTag  = "dateonly"
	dateOnlyText = "must be a date in YYYY-MM-DD format"

	emailKeyTag   = "emailkey"
	emailKeyText  = "must be an email address"
	emailKeyRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

func init() {
	en := english.New()
	Translator, _ = ut.New(en, en).GetTranslator("en")

	Validate = validator.New()
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// unwrap nullable fields so tags like `omitempty,dateonly` apply to the
	// underlying value (or skip when absent)
	Validate.RegisterCustomTypeFunc(nullableTypeFunc, null.String{}, null.Int{}, null.Float64{}, null.Time{})

	// register custom validators
	_ = Validate.RegisterValidation(dateOnlyTag, dateOnlyValidation)
	RegisterCustomTranslation(Validate, Translator, dateOnlyTag, dateOnlyText)

	_ = Validate.RegisterValidation(emailKeyTag, emailKeyValidation)
	RegisterCustomTranslation(Validate, Translator, emailKeyTag, emailKeyText)

	RegisterCustomTranslation(Validate, Translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(Validate, Translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func nullableTypeFunc(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		if val, err := valuer.Value(); err == nil {
			return val
		}
	}
	return nil
}

// Custom Global Validators

// dateOnlyValidation only allows calendar dates in YYYY-MM-DD format.
func dateOnlyValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// emailKeyValidation allows email-shaped strings used as document keys.
// Deliberately laxer than the RFC-strict "email" tag: keys are compared
// after trimming and lower-casing, not delivered to.
func emailKeyValidation(fl validator.FieldLevel) bool {
	return emailKeyRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}
