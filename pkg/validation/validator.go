package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
)

const (
	cnicTag         = "cnic"
	phoneTag        = "pkphone"
	dataURLOrURLTag = "dataurl_or_url"
	notBlankTag     = "notblank"
)

// Validator wraps validator.Validate with English messages and JSON field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator with the custom tags used across request DTOs.
func New() *Validator {
	v := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation(cnicTag, func(fl validator.FieldLevel) bool {
		return IsValidCNIC(fl.Field().String())
	})
	_ = v.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation(dataURLOrURLTag, func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return IsImageDataURL(s) || IsHTTPURL(s)
	})
	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	messages := map[string]string{
		cnicTag:         "{0} must be a national ID in the format 12345-1234567-1",
		phoneTag:        "{0} must be a mobile number in the format +923001234567",
		dataURLOrURLTag: "{0} must be an uploaded image URL or an image data URL",
		notBlankTag:     "{0} cannot be blank",
	}
	for tag, msg := range messages {
		tag, msg := tag, msg
		_ = v.RegisterTranslation(tag, trans, func(t ut.Translator) error {
			return t.Add(tag, msg, true)
		}, func(t ut.Translator, fe validator.FieldError) string {
			out, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return out
		})
	}

	return &Validator{validate: v, translator: trans}
}

// Struct validates s and returns nil or a VALIDATION_ERROR carrying every failing field.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return appErrors.Validation("validation failed", v.Fields(verrs))
}

// Fields translates validator errors into API field errors.
func (v *Validator) Fields(verrs validator.ValidationErrors) []appErrors.FieldError {
	out := make([]appErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, appErrors.FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fe.Translate(v.translator),
		})
	}
	return out
}

// Engine exposes the underlying validator, e.g. to plug into gin's binding.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}
