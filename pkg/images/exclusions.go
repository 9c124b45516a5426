package images

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeAlt trims s and puts it in Unicode NFC form so that visually
// identical alt texts compare equal.
func NormalizeAlt(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Exclusions is the set of alt texts treated as insufficient.
type Exclusions struct {
	set map[string]bool
}

// NewExclusions returns a set holding the given texts.
func NewExclusions(texts ...string) *Exclusions {
	e := &Exclusions{set: make(map[string]bool)}
	for _, t := range texts {
		if t = NormalizeAlt(t); t != "" {
			e.set[t] = true
		}
	}
	return e
}

// Contains reports whether text is excluded.
func (e *Exclusions) Contains(text string) bool {
	if e == nil {
		return false
	}
	return e.set[NormalizeAlt(text)]
}

// Toggle adds text when absent and removes it when present. It reports
// whether text is in the set afterwards.
func (e *Exclusions) Toggle(text string) bool {
	key := NormalizeAlt(text)
	if key == "" {
		return false
	}
	if e.set[key] {
		delete(e.set, key)
		return false
	}
	e.set[key] = true
	return true
}

// Len returns the number of excluded texts.
func (e *Exclusions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.set)
}

// Texts returns the excluded texts sorted.
func (e *Exclusions) Texts() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.set))
	for t := range e.set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as an object mapping each text to true.
func (e *Exclusions) MarshalJSON() ([]byte, error) {
	if e == nil || e.set == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.set)
}

// UnmarshalJSON decodes an object of text to bool; false entries are dropped.
func (e *Exclusions) UnmarshalJSON(data []byte) error {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.set = make(map[string]bool, len(raw))
	for t, ok := range raw {
		if t = NormalizeAlt(t); ok && t != "" {
			e.set[t] = true
		}
	}
	return nil
}
