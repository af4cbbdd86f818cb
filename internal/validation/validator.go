// AngelaMos | 2026
// validator.go

package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/northstarhq/northstar/internal/core"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// Error wraps an invalid Result as a typed error so services can abort a
// mutation before persistence while handlers keep the per-field structure.
type Error struct {
	Result *Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Result.Errors))
}

func (e *Error) Unwrap() error {
	return core.ErrValidationFailed
}

// Validator evaluates the entity rule table. The same rules run behind the
// HTTP validate endpoint (client fast-fail) and inside services before
// persistence; only the latter is the trust boundary.
type Validator struct {
	mu    sync.RWMutex
	rules map[string][]FieldRule
}

func New() *Validator {
	return &Validator{rules: builtinRules()}
}

// Register installs or replaces the rule set for an entity.
func (v *Validator) Register(entity string, rules []FieldRule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[entity] = rules
}

// Entities returns the entity names with registered rules.
func (v *Validator) Entities() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.rules))
	for name := range v.rules {
		names = append(names, name)
	}
	return names
}

// Validate runs the entity's rules over data. Unknown entities are an
// error; rule failures are not, they come back inside the Result.
func (v *Validator) Validate(entity string, data map[string]any) (*Result, error) {
	v.mu.RLock()
	rules, ok := v.rules[entity]
	v.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown entity %q: %w", entity, core.ErrInvalidInput)
	}

	result := &Result{Valid: true, Errors: []FieldError{}}
	for _, rule := range rules {
		checkField(rule, data, result)
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

func checkField(rule FieldRule, data map[string]any, result *Result) {
	value, present := data[rule.Field]
	if value == nil {
		present = false
	}

	if !present {
		if rule.Required {
			result.fail(rule.Field, "required", "is required")
		}
		return
	}

	if rule.Numeric || rule.Min != nil || rule.Max != nil {
		checkNumeric(rule, value, result)
		return
	}

	str, ok := value.(string)
	if !ok {
		result.fail(rule.Field, "invalid_type", "must be a string")
		return
	}

	if rule.Required && str == "" {
		result.fail(rule.Field, "required", "is required")
		return
	}

	// Optional fields may be sent empty to clear a value.
	if str == "" {
		return
	}

	length := utf8.RuneCountInString(str)
	if rule.MinLen > 0 && length < rule.MinLen {
		result.fail(rule.Field, "min_length",
			fmt.Sprintf("must be at least %d characters", rule.MinLen))
	}
	if rule.MaxLen > 0 && length > rule.MaxLen {
		result.fail(rule.Field, "max_length",
			fmt.Sprintf("must be at most %d characters", rule.MaxLen))
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(str) {
		msg := rule.PatternMsg
		if msg == "" {
			msg = "has an invalid format"
		}
		result.fail(rule.Field, "pattern", msg)
	}

	if rule.Email && !emailPattern.MatchString(str) {
		result.fail(rule.Field, "email", "must be a valid email address")
	}

	if rule.UUID && !isCanonicalUUID(str) {
		result.fail(rule.Field, "uuid", "must be a valid UUID")
	}
}

func checkNumeric(rule FieldRule, value any, result *Result) {
	num, ok := toFloat(value)
	if !ok {
		result.fail(rule.Field, "invalid_type", "must be a number")
		return
	}

	if rule.Min != nil && num < *rule.Min {
		result.fail(rule.Field, "min",
			fmt.Sprintf("must be at least %g", *rule.Min))
	}
	if rule.Max != nil && num > *rule.Max {
		result.fail(rule.Field, "max",
			fmt.Sprintf("must be at most %g", *rule.Max))
	}
}

func (r *Result) fail(field, code, message string) {
	r.Errors = append(r.Errors, FieldError{
		Field:   field,
		Code:    code,
		Message: message,
	})
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// isCanonicalUUID accepts only the 36-character hyphenated form, matching
// the identifier shape stored in the database.
func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
