package fields

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Value is a typed custom-field value. Each FieldType has exactly one
// variant; parsers below are the only way values enter the system.
type Value interface {
	Kind() FieldType
}

type TextValue struct{ Text string }

func (TextValue) Kind() FieldType { return TypeText }

type NumberValue struct{ Number decimal.Decimal }

func (NumberValue) Kind() FieldType { return TypeNumber }

type BooleanValue struct{ Bool bool }

func (BooleanValue) Kind() FieldType { return TypeBoolean }

type DateValue struct{ Date time.Time }

func (DateValue) Kind() FieldType { return TypeDate }

type MultiSelectValue struct{ Selected []string }

func (MultiSelectValue) Kind() FieldType { return TypeMultiSelect }

// FieldError reports a bad value for a named field.
type FieldError struct {
	Key     string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Key, e.Message)
}

// parsers maps each field type onto its value constructor. Raw values come
// from decoded JSON, so numbers arrive as float64 or json.Number strings.
var parsers = map[FieldType]func(raw any) (Value, error){
	TypeText:        parseText,
	TypeNumber:      parseNumber,
	TypeBoolean:     parseBoolean,
	TypeDate:        parseDate,
	TypeMultiSelect: parseMultiSelect,
}

func parseText(raw any) (Value, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected a string, got %T", raw)
	}
	return TextValue{Text: s}, nil
}

func parseNumber(raw any) (Value, error) {
	switch v := raw.(type) {
	case float64:
		return NumberValue{Number: decimal.NewFromFloat(v)}, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", v)
		}
		return NumberValue{Number: d}, nil
	default:
		return nil, fmt.Errorf("expected a number, got %T", raw)
	}
}

func parseBoolean(raw any) (Value, error) {
	b, ok := raw.(bool)
	if !ok {
		return nil, fmt.Errorf("expected a boolean, got %T", raw)
	}
	return BooleanValue{Bool: b}, nil
}

func parseDate(raw any) (Value, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected a YYYY-MM-DD string, got %T", raw)
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("expected a YYYY-MM-DD string, got %q", s)
	}
	return DateValue{Date: d}, nil
}

func parseMultiSelect(raw any) (Value, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %T", raw)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("expected a list of strings, got %T element", it)
		}
		out = append(out, s)
	}
	return MultiSelectValue{Selected: out}, nil
}

// ParseValue constructs the variant for a definition's type.
func ParseValue(t FieldType, raw any) (Value, error) {
	parse, ok := parsers[t]
	if !ok {
		return nil, fmt.Errorf("unknown field type %q", t)
	}
	return parse(raw)
}

// Validate checks a raw value map against an entity's definitions: every key
// must be defined, every value must parse for its type, multiselect values
// must come from the definition's options, and required fields must be
// present. It returns the parsed values keyed by field key.
func Validate(defs []FieldDefinition, raw map[string]any) (map[string]Value, error) {
	byKey := make(map[string]FieldDefinition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}

	out := make(map[string]Value, len(raw))
	for key, rv := range raw {
		def, ok := byKey[key]
		if !ok {
			return nil, &FieldError{Key: key, Message: "no such field"}
		}
		v, err := ParseValue(def.Type, rv)
		if err != nil {
			return nil, &FieldError{Key: key, Message: err.Error()}
		}
		if ms, ok := v.(MultiSelectValue); ok {
			for _, sel := range ms.Selected {
				if !contains(def.Options, sel) {
					return nil, &FieldError{Key: key, Message: fmt.Sprintf("%q is not an allowed option", sel)}
				}
			}
		}
		out[key] = v
	}

	for _, d := range defs {
		if d.Required {
			if _, ok := raw[d.Key]; !ok {
				return nil, &FieldError{Key: d.Key, Message: "required field is missing"}
			}
		}
	}
	return out, nil
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}
