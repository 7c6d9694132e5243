// Package validate checks request bodies before they reach the service layer.
//
// Rules are declared as `validate` struct tags on the request types in
// internal/model and enforced by go-playground/validator. Failures come back
// as a single apperror validation error whose Details hold one client-facing
// message per failed field, in declaration order.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/dating-profiles/internal/apperror"
	"github.com/sakif/dating-profiles/internal/model"
)

// normalizer is implemented by request types that trim or lower-case their
// fields. It runs before any rule is checked.
type normalizer interface {
	Normalize()
}

// messager is implemented by request types that name the message for each
// failed rule. Keys are "<json field>.<tag>"; "<json field>.type" covers a
// JSON value of the wrong kind.
type messager interface {
	ValidationMessages() map[string]string
}

// Validator is safe for concurrent use; build one at startup and share it.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so messages and the `field` key in
	// error responses match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registrations only fail on an empty tag or nil func.
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("iso8601", isISO8601)
	_ = v.RegisterValidation("maxbytes", maxBytes)

	return &Validator{v: v}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// maxBytes bounds the encoded length of a string. The built-in max counts
// runes, and bcrypt rejects input over 72 bytes.
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

func isISO8601(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}

// Struct normalizes dst (when it knows how) and checks its rules.
func (v *Validator) Struct(dst any) error {
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}

	err := v.v.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	msgs := messagesOf(dst)
	fields := make([]apperror.FieldError, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))

	for _, fe := range verrs {
		// Slice elements come back as "interested_in_roles[1]".
		field, _, _ := strings.Cut(fe.Field(), "[")
		msg := messageFor(msgs, field, fe.Tag())

		if seen[field+msg] {
			continue
		}
		seen[field+msg] = true

		fields = append(fields, apperror.FieldError{Field: field, Message: msg})
	}

	return apperror.Invalid(fields)
}

// DecodeJSON decodes one JSON object from r into dst and validates it.
// Unknown fields are ignored. Malformed JSON and values of the wrong kind
// are reported as validation errors, never as server errors.
func (v *Validator) DecodeJSON(r io.Reader, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			field, _, _ := strings.Cut(typeErr.Field, ".")
			tag := "type"
			// A bad element inside a list reads like a bad enum value.
			if typeErr.Type != nil && typeErr.Type.Kind() != reflect.Slice && isSliceField(dst, field) {
				tag = "oneof"
			}
			msg := messageFor(messagesOf(dst), field, tag)
			return apperror.Invalid([]apperror.FieldError{{Field: field, Message: msg}})
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "Request body is required")
		default:
			return apperror.ValidationFailed("", "Invalid JSON body")
		}
	}

	return v.Struct(dst)
}

func messagesOf(dst any) map[string]string {
	if m, ok := dst.(messager); ok {
		return m.ValidationMessages()
	}
	return nil
}

func messageFor(msgs map[string]string, field, tag string) string {
	if msg, ok := msgs[field+"."+tag]; ok {
		return msg
	}
	return fmt.Sprintf("Invalid %s", strings.ReplaceAll(field, "_", " "))
}

// isSliceField reports whether the struct behind dst has a slice field
// with the given JSON name.
func isSliceField(dst any, jsonName string) bool {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == jsonName {
			return f.Type.Kind() == reflect.Slice
		}
	}
	return false
}
