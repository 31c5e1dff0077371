package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

var userCodeRegex = regexp.MustCompile(`^PLAYITUSER#\d{5,}$`)

func init() {
	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")

	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	_ = validate.RegisterValidation("trim", trimValue)
	_ = validate.RegisterValidation("usercode", func(fl validator.FieldLevel) bool {
		return userCodeRegex.MatchString(fl.Field().String())
	})
	_ = validate.RegisterTranslation("usercode", trans,
		func(ut ut.Translator) error {
			return ut.Add("usercode", "{0} must look like PLAYITUSER#00001", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("usercode", fe.Field())
			return msg
		},
	)
}

// trimValue strips surrounding whitespace in place; it never fails.
func trimValue(fl validator.FieldLevel) bool {
	fl.Field().SetString(strings.TrimSpace(fl.Field().String()))
	return true
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the error response itself and reports whether the caller should
// continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	message, fields, ok := bindJSON(r, dst)
	switch {
	case ok:
		return true
	case fields != nil:
		writeValidationError(w, fields)
	default:
		writeError(w, http.StatusBadRequest, message)
	}
	return false
}

// bindJSON is decodeAndValidate without the response, for handlers with
// their own error envelope.
func bindJSON(r *http.Request, dst interface{}) (string, map[string]string, bool) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "Invalid request body", nil, false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Translate(trans)
			}
			return "Validation failed", fields, false
		}
		return "Invalid request body", nil, false
	}
	return "", nil, true
}
