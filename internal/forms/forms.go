// Package forms defines declarative field schemas for the application's
// HTML forms and a generic validator that evaluates them against submitted
// form values.
package forms

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
)

// Kind is the expected type of a form field.
type Kind int

const (
	Text Kind = iota
	Email
	Password
	Float
	Bool
)

// Field describes one form field and its validation rules.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	MinLen   int
	MaxLen   int
	// Positive requires a Float field to be greater than zero.
	Positive bool
	// MatchField names another field whose value must be identical.
	MatchField string
}

// Schema is an ordered set of fields making up one form.
type Schema struct {
	Name   string
	Fields []Field
}

// Result is the outcome of validating a submission against a schema.
type Result struct {
	OK     bool
	Errors map[string]string
	// Values holds the trimmed raw strings for every schema field, so a
	// failed form can be re-rendered with what the user typed.
	Values map[string]string
	Floats map[string]float64
	Bools  map[string]bool
}

// Validate evaluates the schema against submitted form values. It is a pure
// function of its input: the first failed rule per field wins, and a field
// that fails produces no typed value.
func (s Schema) Validate(form url.Values) Result {
	res := Result{
		Errors: make(map[string]string),
		Values: make(map[string]string),
		Floats: make(map[string]float64),
		Bools:  make(map[string]bool),
	}

	for _, f := range s.Fields {
		raw := strings.TrimSpace(form.Get(f.Name))
		if f.Kind == Password {
			// Leading/trailing whitespace is significant in passwords.
			raw = form.Get(f.Name)
		}
		res.Values[f.Name] = raw

		if f.Kind == Bool {
			// Checkboxes are absent when unchecked; any submitted value counts.
			res.Bools[f.Name] = raw != ""
			continue
		}

		if raw == "" {
			if f.Required {
				res.Errors[f.Name] = fmt.Sprintf("%s is required", f.Label)
			}
			continue
		}

		switch f.Kind {
		case Text, Password:
			if f.MinLen > 0 && len(raw) < f.MinLen {
				res.Errors[f.Name] = fmt.Sprintf("%s must be at least %d characters", f.Label, f.MinLen)
				continue
			}
			if f.MaxLen > 0 && len(raw) > f.MaxLen {
				res.Errors[f.Name] = fmt.Sprintf("%s must be at most %d characters", f.Label, f.MaxLen)
				continue
			}
		case Email:
			if _, err := mail.ParseAddress(raw); err != nil {
				res.Errors[f.Name] = fmt.Sprintf("%s must be a valid email address", f.Label)
				continue
			}
		case Float:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				res.Errors[f.Name] = fmt.Sprintf("%s must be a number", f.Label)
				continue
			}
			if f.Positive && v <= 0 {
				res.Errors[f.Name] = fmt.Sprintf("%s must be greater than zero", f.Label)
				continue
			}
			res.Floats[f.Name] = v
		}

		if f.MatchField != "" && raw != form.Get(f.MatchField) {
			res.Errors[f.Name] = fmt.Sprintf("%s must match %s", f.Label, f.MatchField)
		}
	}

	res.OK = len(res.Errors) == 0
	return res
}

// Registration is the schema for the /register form.
var Registration = Schema{
	Name: "registration",
	Fields: []Field{
		{Name: "username", Label: "Username", Kind: Text, Required: true, MinLen: 2, MaxLen: 20},
		{Name: "email", Label: "Email", Kind: Email, Required: true},
		{Name: "password", Label: "Password", Kind: Password, Required: true},
		{Name: "confirm_password", Label: "Confirm Password", Kind: Password, Required: true, MatchField: "password"},
	},
}

// Login is the schema for the /login form.
var Login = Schema{
	Name: "login",
	Fields: []Field{
		{Name: "email", Label: "Email", Kind: Email, Required: true},
		{Name: "password", Label: "Password", Kind: Password, Required: true},
		{Name: "remember", Label: "Remember Me", Kind: Bool},
	},
}

// Income is the schema for the /add_income form.
var Income = Schema{
	Name: "income",
	Fields: []Field{
		{Name: "amount", Label: "Amount", Kind: Float, Required: true, Positive: true},
		{Name: "source", Label: "Source", Kind: Text, Required: true},
	},
}

// Expense is the schema for the /add_expense form.
var Expense = Schema{
	Name: "expense",
	Fields: []Field{
		{Name: "amount", Label: "Amount", Kind: Float, Required: true, Positive: true},
		{Name: "category", Label: "Category", Kind: Text, Required: true},
		{Name: "description", Label: "Description", Kind: Text},
	},
}
