package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/UnknownOlympus/athena/internal/models"
)

var isoDateLayouts = []string{time.DateOnly, time.RFC3339Nano}

var validate = validator.New()

// Validate evaluates every rule of the set against record and returns all violations,
// one per offending field, in declaration order. Keys the set does not declare are
// reported after the declared fields, sorted by name. A nil result means the record is valid.
func Validate(record models.Record, set RuleSet) []models.FieldError {
	var errs []models.FieldError

	for _, rule := range set.rules {
		value, present := record[rule.Field]
		if msg := rule.check(value, present); msg != "" {
			errs = append(errs, models.FieldError{Field: rule.Field, Message: msg})
		}
	}

	unknown := make([]string, 0)
	for key := range record {
		if _, ok := set.Rule(key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, models.FieldError{Field: key, Message: key + " is not allowed"})
	}

	return errs
}

// ApplyDefaults returns a copy of record with rule defaults filled in for absent fields.
func ApplyDefaults(record models.Record, set RuleSet) models.Record {
	out := make(models.Record, len(record))
	for k, v := range record {
		out[k] = v
	}

	for _, rule := range set.rules {
		if _, present := out[rule.Field]; !present && rule.Default != nil {
			out[rule.Field] = rule.Default
		}
	}

	return out
}

func (r Rule) check(value any, present bool) string {
	if !present {
		if r.Required {
			return r.Label + " is required"
		}
		return ""
	}

	switch r.Kind {
	case KindString, KindEmail, KindPattern, KindEnum:
		return r.checkString(value)
	case KindPositiveNumber:
		return r.checkPositiveNumber(value)
	case KindISODate:
		return r.checkISODate(value)
	default:
		return fmt.Sprintf("%s has an unsupported rule", r.Label)
	}
}

func (r Rule) checkString(value any) string {
	str, ok := value.(string)
	if !ok {
		return r.Label + " must be a string"
	}
	if str == "" {
		return r.Label + " is required"
	}

	switch r.Kind {
	case KindString:
		length := utf8.RuneCountInString(str)
		if r.MinLen > 0 && length < r.MinLen {
			return fmt.Sprintf("%s must be at least %d characters long", r.Label, r.MinLen)
		}
		if r.MaxLen > 0 && length > r.MaxLen {
			return fmt.Sprintf("%s must not exceed %d characters", r.Label, r.MaxLen)
		}
	case KindEmail:
		if err := validate.Var(str, "required,email"); err != nil {
			return r.Label + " must be a valid email address"
		}
	case KindPattern:
		if !r.Pattern.MatchString(str) {
			return r.Label + " must be a valid format"
		}
	case KindEnum:
		for _, allowed := range r.Allowed {
			if str == allowed {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", r.Label, strings.Join(r.Allowed, ", "))
	}

	return ""
}

func (r Rule) checkPositiveNumber(value any) string {
	var num float64

	switch v := value.(type) {
	case float64:
		num = v
	case float32:
		num = float64(v)
	case int:
		num = float64(v)
	case int64:
		num = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return r.Label + " must be a number"
		}
		num = parsed
	default:
		return r.Label + " must be a number"
	}

	if num <= 0 {
		return r.Label + " must be a positive number"
	}

	return ""
}

func (r Rule) checkISODate(value any) string {
	str, ok := value.(string)
	if !ok {
		return r.Label + " must be a valid date"
	}

	for _, layout := range isoDateLayouts {
		if _, err := time.Parse(layout, str); err == nil {
			return ""
		}
	}

	return r.Label + " must be in ISO format (YYYY-MM-DD)"
}
