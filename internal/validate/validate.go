// Package validate wraps go-playground/validator for configuration and
// scenario documents. Field names in messages follow the json tags so they
// match what users wrote.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/posched/core/model"
)

// Validator is a wrapper around go-playground/validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator reporting json field names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

var (
	shared     *Validator
	sharedOnce sync.Once
)

// Struct validates s with the shared validator.
func Struct(s any) error {
	sharedOnce.Do(func() { shared = New() })
	return shared.Struct(s)
}

// Struct validates a struct using validation tags. Failures wrap
// model.ErrConfiguration.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return format(err)
	}
	return nil
}

func format(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := fmt.Sprintf("field '%s' failed validation: %s", trimRoot(e.Namespace()), e.Tag())
		if e.Param() != "" {
			msg += "=" + e.Param()
		}
		messages = append(messages, fmt.Sprintf("%s (value: '%v')", msg, e.Value()))
	}
	return fmt.Errorf("%w: validation failed:\n  %s", model.ErrConfiguration, strings.Join(messages, "\n  "))
}

// trimRoot drops the struct type prefix from a namespace.
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
