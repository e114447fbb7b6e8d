// Package normalize canonicalizes free-text fields and checks them against
// the closed vocabularies accepted by the destination schema.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/energyaudit/auditmig/internal/model"
)

// Vocabulary is a closed set of canonical (capitalized) values.
type Vocabulary struct {
	name   string
	values map[string]struct{}
}

// NewVocabulary builds a vocabulary from canonical values.
func NewVocabulary(name string, values ...string) Vocabulary {
	v := Vocabulary{name: name, values: make(map[string]struct{}, len(values))}
	for _, val := range values {
		v.values[val] = struct{}{}
	}
	return v
}

// Name returns the vocabulary's label.
func (v Vocabulary) Name() string { return v.name }

// Contains reports whether s is one of the canonical values.
func (v Vocabulary) Contains(s string) bool {
	_, ok := v.values[s]
	return ok
}

// Values returns the canonical values in sorted order.
func (v Vocabulary) Values() []string {
	out := make([]string, 0, len(v.values))
	for val := range v.values {
		out = append(out, val)
	}
	sort.Strings(out)
	return out
}

var (
	OpeningMaterial = NewVocabulary("opening material",
		"Legno", "Ferro", "Alluminio", "Pvc")
	OpeningGlazing = NewVocabulary("opening glazing",
		"Singolo", "Doppio", "Camera", "Triplo", "Plexiglas")
	// RoomClimate covers both heating and cooling.
	RoomClimate = NewVocabulary("room climate",
		"No climatizzata", "Radiatori", "Ventilconvettori", "Split",
		"A pavimento", "Pannelli radianti", "Bocchette ad aria")
	RoomLighting = NewVocabulary("room lighting",
		"No illuminata", "Alogene", "Neon", "Led", "Fluorescenza")
)

// Capitalize trims surrounding whitespace, upper-cases the first character
// and lower-cases the rest. Capitalize(Capitalize(s)) == Capitalize(s).
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Validate capitalizes raw and checks it against vocab. A nil value passes
// through unchanged.
func Validate(field string, raw *string, vocab Vocabulary) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	val := Capitalize(*raw)
	if !vocab.Contains(val) {
		return nil, &ValidationError{Field: field, Value: *raw, Allowed: vocab.Values()}
	}
	return &val, nil
}

var utilitySynonyms = map[string]model.UtilityKind{
	"idrica":            model.UtilityWater,
	"idrico":            model.UtilityWater,
	"acqua":             model.UtilityWater,
	"water":             model.UtilityWater,
	"elettrica":         model.UtilityElectric,
	"elettrico":         model.UtilityElectric,
	"elettricità":       model.UtilityElectric,
	"elettricita":       model.UtilityElectric,
	"luce":              model.UtilityElectric,
	"electric":          model.UtilityElectric,
	"termica":           model.UtilityHeating,
	"termico":           model.UtilityHeating,
	"riscaldamento":     model.UtilityHeating,
	"teleriscaldamento": model.UtilityHeating,
	"gas":               model.UtilityHeating,
	"heating":           model.UtilityHeating,
}

// UtilitySynonyms returns the accepted spellings in sorted order.
func UtilitySynonyms() []string {
	out := make([]string, 0, len(utilitySynonyms))
	for k := range utilitySynonyms {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParseUtilityKind maps a free-text utility type to its kind, ignoring case
// and surrounding whitespace.
func ParseUtilityKind(raw string) (model.UtilityKind, error) {
	kind, ok := utilitySynonyms[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", &ValidationError{Field: "utility.type", Value: raw, Allowed: UtilitySynonyms()}
	}
	return kind, nil
}

// ValidationError reports a value outside its vocabulary.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Violations groups every ValidationError found while checking a row set.
type Violations []*ValidationError

func (v Violations) Error() string {
	switch len(v) {
	case 0:
		return "no violations"
	case 1:
		return v[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d invalid values:", len(v))
	for _, e := range v {
		b.WriteString("\n  ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (v Violations) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Collector gathers violations. In fail-fast mode Add returns the first
// violation immediately; otherwise Add records it and Err reports them all.
type Collector struct {
	FailFast   bool
	violations Violations
}

// Add records err if it is a validation failure. Any other non-nil error is
// returned unchanged.
func (c *Collector) Add(err error) error {
	if err == nil {
		return nil
	}
	ve, ok := err.(*ValidationError)
	if !ok || c.FailFast {
		return err
	}
	c.violations = append(c.violations, ve)
	return nil
}

// Err returns the collected violations, or nil when there were none.
func (c *Collector) Err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return c.violations
}
