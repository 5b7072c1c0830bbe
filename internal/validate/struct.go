// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Engine holds the shared tag validator and its english translator.
type Engine struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	engineOnce sync.Once
	engine     *Engine
)

// Tags returns the shared struct tag validator, initialising it on first use.
func Tags() *Engine {
	engineOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// report the name the user wrote: json for payloads, yaml for config
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "yaml"} {
				tag := fld.Tag.Get(key)
				if tag == "-" || tag == "" {
					continue
				}
				if idx := strings.Index(tag, ","); idx >= 0 {
					tag = tag[:idx]
				}
				if tag != "" {
					return tag
				}
			}
			return fld.Name
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)
		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")

		_ = v.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
			return ValidBarcode(fl.Field().String(), fl.Param() == "strict")
		})
		registerShort(v, trans, "barcode", "{0} must be a barcode of at least 3 digits")

		engine = &Engine{Validator: v, Translator: trans}
	})
	return engine
}

// Struct validates s against its `validate` tags and converts failures to a
// ValidationError with translated messages.
func Struct(s any) error {
	e := Tags()
	err := e.Validator.Struct(s)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return inv
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	v := New()
	for _, fe := range verrs {
		v.AddError(namespace(fe), fe.Translate(e.Translator), fe.Value())
	}
	return v.Err()
}

// namespace drops the root type name: "AppConfig.api.base_url" -> "api.base_url".
func namespace(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
