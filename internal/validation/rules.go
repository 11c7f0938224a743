package validation

import (
	"regexp"

	"github.com/UnknownOlympus/athena/internal/models"
)

// Kind selects the constraint family a rule evaluates.
type Kind int

const (
	KindString Kind = iota
	KindEmail
	KindPattern
	KindEnum
	KindPositiveNumber
	KindISODate
)

// Rule is the declarative constraint for one field.
type Rule struct {
	Field    string
	Label    string
	Kind     Kind
	Required bool
	MinLen   int
	MaxLen   int
	Pattern  *regexp.Regexp
	Allowed  []string
	Default  any
}

// RuleSet is an ordered, read-only table of rules. Field errors are reported in table order.
type RuleSet struct {
	name  string
	rules []Rule
}

// Name returns the operation the rule set belongs to ("create" or "update").
func (rs RuleSet) Name() string {
	return rs.name
}

// Rules returns a copy of the rules in declaration order.
func (rs RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)

	return out
}

// Rule looks up the rule declared for field.
func (rs RuleSet) Rule(field string) (Rule, bool) {
	for _, rule := range rs.rules {
		if rule.Field == field {
			return rule, true
		}
	}

	return Rule{}, false
}

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

func enumValues[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}

	return out
}

func baseRules() []Rule {
	return []Rule{
		{Field: "firstName", Label: "First name", Kind: KindString, Required: true, MinLen: 2, MaxLen: 50},
		{Field: "lastName", Label: "Last name", Kind: KindString, Required: true, MinLen: 2, MaxLen: 50},
		{Field: "email", Label: "Email", Kind: KindEmail, Required: true},
		{Field: "phone", Label: "Phone number", Kind: KindPattern, Required: true, Pattern: phonePattern},
		{
			Field: "department", Label: "Department", Kind: KindEnum, Required: true,
			Allowed: enumValues(models.Departments()),
		},
		{Field: "position", Label: "Position", Kind: KindString, Required: true, MinLen: 2, MaxLen: 100},
		{Field: "salary", Label: "Salary", Kind: KindPositiveNumber, Required: true},
		{Field: "hireDate", Label: "Hire date", Kind: KindISODate, Required: true},
		{
			Field: "status", Label: "Status", Kind: KindEnum,
			Allowed: enumValues(models.Statuses()), Default: string(models.StatusActive),
		},
	}
}

func optional(rules []Rule) []Rule {
	for i := range rules {
		rules[i].Required = false
	}

	return rules
}

var (
	// CreateRules validates a full employee payload.
	CreateRules = RuleSet{name: "create", rules: baseRules()}
	// UpdateRules validates a partial employee payload: same constraints, nothing required.
	UpdateRules = RuleSet{name: "update", rules: optional(baseRules())}
)
