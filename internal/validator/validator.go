// Package validator checks string fields against rules declared in `validate` tags.
//
// Rules are separated by "|":
//
//	required      string must not be blank
//	max:N         string length in runes
//	regexp:RE     whole string must match RE
//	layout:L      non-empty string must parse with time layout L
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	tagNameValidate  = "validate"
	tagValueRequired = "required"
	tagValueMax      = "max"
	tagValueRegexp   = "regexp"
	tagValueLayout   = "layout"
)

var (
	ErrIncorrectTagValue      = errors.New("incorrect tag value for validating with field value")
	ErrValidateRequired       = errors.New("is required")
	ErrValidateTooLong        = errors.New("value is too long")
	ErrValidateNotMatchRegexp = errors.New("does not match regexp")
	ErrValidateLayout         = errors.New("has incorrect format")
	ErrIncorrectTag           = errors.New("incorrect tag")
	ErrIncorrectStruct        = errors.New("incorrect struct")
)

type ValidationError struct {
	Field string
	Err   error
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s %s", strings.ToLower(v.Field), v.Err.Error())
}

func (v ValidationError) Unwrap() error {
	return v.Err
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	sort.Slice(v, func(i, j int) bool {
		if v[i].Field == v[j].Field {
			return v[i].Err.Error() < v[j].Err.Error()
		}
		return v[i].Field < v[j].Field
	})
	parts := make([]string, 0, len(v))
	for _, validationError := range v {
		parts = append(parts, validationError.Error())
	}
	return strings.Join(parts, "; ")
}

// Is reports whether any field failed with target.
func (v ValidationErrors) Is(target error) bool {
	for _, e := range v {
		if errors.Is(e.Err, target) {
			return true
		}
	}
	return false
}

type rule struct {
	name  string
	value string
}

func Validate(v interface{}) error {
	if v == nil {
		return ErrIncorrectStruct
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ErrIncorrectStruct
	}
	t := rv.Type()

	var validationErrors ValidationErrors
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		rules, err := parseValidateTag(t.Field(i).Tag)
		if err != nil {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
		if len(rules) == 0 {
			continue
		}
		if field.Kind() != reflect.String {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, ErrIncorrectTag)
		}

		for _, r := range rules {
			err := validateString(field.String(), r)
			if errors.Is(err, ErrIncorrectTag) || errors.Is(err, ErrIncorrectTagValue) {
				return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
			}
			if err != nil {
				validationErrors = append(validationErrors, ValidationError{Field: t.Field(i).Name, Err: err})
				break
			}
		}
	}

	if len(validationErrors) == 0 {
		return nil
	}
	return validationErrors
}

func validateString(val string, r rule) error {
	switch r.name {
	case tagValueRequired:
		if strings.TrimSpace(val) == "" {
			return ErrValidateRequired
		}
	case tagValueMax:
		check, err := strconv.Atoi(r.value)
		if err != nil {
			return ErrIncorrectTagValue
		}
		if utf8.RuneCountInString(val) > check {
			return ErrValidateTooLong
		}
	case tagValueRegexp:
		re, err := regexp.Compile(r.value)
		if err != nil {
			return ErrIncorrectTagValue
		}
		if match := re.FindString(val); len(match) != len(val) {
			return ErrValidateNotMatchRegexp
		}
	case tagValueLayout:
		if val == "" {
			return nil
		}
		parsed, err := time.Parse(r.value, val)
		if err != nil || parsed.Format(r.value) != val {
			return ErrValidateLayout
		}
	default:
		return ErrIncorrectTag
	}
	return nil
}

func parseValidateTag(tag reflect.StructTag) ([]rule, error) {
	val := tag.Get(tagNameValidate)
	if val == "" {
		return nil, nil
	}

	validators := strings.Split(val, "|")
	rules := make([]rule, 0, len(validators))
	for _, validator := range validators {
		name, value, found := strings.Cut(validator, ":")
		if !found && name != tagValueRequired {
			return nil, ErrIncorrectTag
		}
		rules = append(rules, rule{name: name, value: value})
	}
	return rules, nil
}
