// Package diet holds the domain types of the diet gateway and the prompts
// rendered from them.
package diet

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Weekdays are the keys a generated plan is expected to carry, in order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Field is a loosely typed scalar from a request body. Callers may send
// numbers or strings for any field and the value is rendered into the prompt
// as sent.
type Field struct {
	raw json.RawMessage
}

// Text returns a Field holding a string value
func Text(s string) Field {
	raw, _ := json.Marshal(s)
	return Field{raw: raw}
}

// Number returns a Field holding a numeric value
func Number(f float64) Field {
	return Field{raw: json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))}
}

// UnmarshalJSON keeps the raw scalar so it can be rendered verbatim
func (f *Field) UnmarshalJSON(data []byte) error {
	f.raw = append(f.raw[:0], bytes.TrimSpace(data)...)
	return nil
}

// MarshalJSON writes the value back as received; an absent field is null
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Present() {
		return []byte("null"), nil
	}
	return f.raw, nil
}

// Present reports whether the field appeared in the request body
func (f Field) Present() bool {
	return len(f.raw) > 0
}

// String renders the value the way it is interpolated into prompts. Absent
// fields render as "undefined", strings unquoted and numbers in their
// shortest form. Arrays join their elements with "," (null elements render
// empty) and objects render as "[object Object]".
func (f Field) String() string {
	if !f.Present() {
		return "undefined"
	}

	switch f.raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(f.raw, &s); err == nil {
			return s
		}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(f.raw, &elems); err == nil {
			parts := make([]string, len(elems))
			for i, elem := range elems {
				if string(elem) != "null" {
					parts[i] = Field{raw: elem}.String()
				}
			}
			return strings.Join(parts, ",")
		}
	case '{':
		return "[object Object]"
	case 'n', 't', 'f':
		return string(f.raw)
	default:
		if n, err := strconv.ParseFloat(string(f.raw), 64); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return string(f.raw)
}

// Falsy reports whether the value is absent, null, false, zero or an empty
// string.
func (f Field) Falsy() bool {
	if !f.Present() {
		return true
	}

	switch f.raw[0] {
	case 'n', 'f':
		return true
	case '"':
		return string(f.raw) == `""`
	case '{', '[', 't':
		return false
	default:
		n, err := strconv.ParseFloat(string(f.raw), 64)
		return err == nil && n == 0
	}
}

// DietRequest is the body of a diet plan request
type DietRequest struct {
	Age        Field `json:"age"`
	Weight     Field `json:"weight"`
	Height     Field `json:"height"`
	Goal       Field `json:"goal"`
	Preference Field `json:"preference"`
	Allergies  Field `json:"allergies"`
}

// Meal is one meal of a day
type Meal struct {
	Name  string   `json:"meal"`
	Items []string `json:"items"`
}

// Plan maps a weekday to its meals
type Plan map[string][]Meal

// Days returns the weekdays present in the plan, in calendar order
func (p Plan) Days() []string {
	days := make([]string, 0, len(Weekdays))
	for _, day := range Weekdays {
		if _, ok := p[day]; ok {
			days = append(days, day)
		}
	}
	return days
}

// MissingDays returns the weekdays absent from the plan
func (p Plan) MissingDays() []string {
	var missing []string
	for _, day := range Weekdays {
		if _, ok := p[day]; !ok {
			missing = append(missing, day)
		}
	}
	return missing
}

// MealCount returns the number of meals across all days
func (p Plan) MealCount() int {
	count := 0
	for _, meals := range p {
		count += len(meals)
	}
	return count
}

// PlanResult is the body returned for a diet plan request. Body is always
// valid JSON: the provider's plan when it parsed, an error envelope otherwise.
type PlanResult struct {
	Body  json.RawMessage
	Valid bool
}

// AskRequest is the body of a free-text question
type AskRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// AskResponse carries the provider's answer verbatim
type AskResponse struct {
	Answer string `json:"answer"`
}

// ModelList lists the provider models that can generate content
type ModelList struct {
	Models []string `json:"models"`
}
