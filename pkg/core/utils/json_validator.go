package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// DecodeMode records which strategy produced a successful decode.
type DecodeMode string

const (
	ModeJSON     DecodeMode = "json"
	ModeRepaired DecodeMode = "repaired"
	ModeHJSON    DecodeMode = "hjson"
)

var ErrUndecodable = errors.New("SMART_PARSE_FAILED: all parsing strategies failed for input")

// DecodeLenient decodes a request body into target (a non-nil pointer).
// Order of attempts:
// 1. Standard JSON
// 2. JSON repair (trailing commas, single quotes, comments, unquoted keys)
// 3. Hjson
//
// Syntactically valid JSON that does not fit target is reported as-is; the
// lenient strategies only apply to malformed input. target is left untouched
// unless a strategy succeeds.
func DecodeLenient(data []byte, target interface{}) (DecodeMode, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return "", fmt.Errorf("JSON_STRUCTURAL_ERROR: target must be a non-nil pointer, got %T", target)
	}

	if json.Valid(data) {
		if err := decodeInto(data, rv); err != nil {
			return "", fmt.Errorf("JSON_STRUCTURAL_ERROR: %w", err)
		}
		return ModeJSON, nil
	}

	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		if err := decodeInto([]byte(repaired), rv); err == nil {
			return ModeRepaired, nil
		}
	}

	if normalized, err := hjsonToJSON(data); err == nil {
		if err := decodeInto(normalized, rv); err == nil {
			return ModeHJSON, nil
		}
	}

	return "", ErrUndecodable
}

// decodeInto decodes into a fresh value and only then copies it to target, so
// a failed attempt leaves no partial state behind.
func decodeInto(data []byte, target reflect.Value) error {
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(data, fresh.Interface()); err != nil {
		return err
	}
	target.Elem().Set(fresh.Elem())
	return nil
}

func hjsonToJSON(data []byte) ([]byte, error) {
	var result interface{}
	if err := hjson.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return out, nil
}

// RequireFields checks every struct field tagged `required:"true"` and fails on
// the first zero value. Nested structs and slice elements are checked too.
func RequireFields(v interface{}) error {
	return requireFields(reflect.ValueOf(v), "")
}

func requireFields(v reflect.Value, path string) error {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			field := v.Field(i)
			name := fieldName(sf)
			if path != "" {
				name = path + "." + name
			}
			if sf.Tag.Get("required") == "true" && field.IsZero() {
				return fmt.Errorf("JSON_SCHEMA_VIOLATION: required field '%s' is missing or zero", name)
			}
			if err := requireFields(field, name); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := requireFields(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func fieldName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return name
	}
	return sf.Name
}
