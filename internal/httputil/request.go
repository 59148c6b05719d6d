package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned when the request body is not decodable JSON of the expected shape.
var ErrInvalidBody = errors.New("invalid request body")

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// DecodeAndValidate decodes a JSON body into dst and runs its validate tags.
// It returns ErrInvalidBody (wrapped) for malformed JSON and *ValidationError
// for well-formed bodies that break a rule.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	return Validate(dst)
}

// Validate runs the validate tags of a struct.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return &ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// RespondDecodeError maps an error from DecodeAndValidate to a 422 response.
func RespondDecodeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		RespondValidationError(w, verr.Fields)
		return
	}
	RespondErrorWithCode(w, "invalid request body", CodeInvalidRequestBody, http.StatusUnprocessableEntity)
}

// IntQuery reads an optional integer query parameter bounded by [min, max].
// max < min means no upper bound.
func IntQuery(r *http.Request, name string, def, min, max int) (int, *FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldError{Field: name, Message: "value is not a valid integer"}
	}
	if n < min {
		return 0, &FieldError{Field: name, Message: "must be at least " + strconv.Itoa(min)}
	}
	if max >= min && n > max {
		return 0, &FieldError{Field: name, Message: "must be at most " + strconv.Itoa(max)}
	}
	return n, nil
}

// Int64Param reads a chi URL parameter as an int64.
func Int64Param(r *http.Request, name string) (int64, *FieldError) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, &FieldError{Field: name, Message: "value is not a valid integer"}
	}
	return n, nil
}
