package domain

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSkill converts a raw skill label into its canonical form:
// NFC-normalized, trimmed, inner whitespace collapsed and case folded.
// Empty or whitespace-only labels return ErrInvalidSkill.
func NormalizeSkill(raw string) (string, error) {
	fields := strings.Fields(norm.NFC.String(raw))
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidSkill, raw)
	}
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(strings.Join(fields, " ")), nil
}

// SkillSet is a sorted, de-duplicated list of normalized skills.
// The zero value is an empty set.
type SkillSet []string

// NewSkillSet normalizes and de-duplicates raw skill labels.
// It fails with ErrInvalidSkill on the first malformed label.
func NewSkillSet(raw ...string) (SkillSet, error) {
	set := make(SkillSet, 0, len(raw))
	for _, r := range raw {
		skill, err := NormalizeSkill(r)
		if err != nil {
			return nil, err
		}
		set = append(set, skill)
	}
	slices.Sort(set)
	return slices.Compact(set), nil
}

// MustSkillSet is like NewSkillSet but panics on malformed input.
// Intended for tests and static fixtures.
func MustSkillSet(raw ...string) SkillSet {
	set, err := NewSkillSet(raw...)
	if err != nil {
		// ALLOW-PANIC: fixture helper
		panic(err)
	}
	return set
}

// Contains reports whether the normalized skill is in the set.
func (s SkillSet) Contains(skill string) bool {
	_, found := slices.BinarySearch(s, skill)
	return found
}

// Intersect returns the skills present in both sets.
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	out := SkillSet{}
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch strings.Compare(s[i], other[j]) {
		case 0:
			out = append(out, s[i])
			i++
			j++
		case -1:
			i++
		default:
			j++
		}
	}
	return out
}

// Equal reports whether both sets hold the same skills.
func (s SkillSet) Equal(other SkillSet) bool {
	return slices.Equal(s, other)
}

// Clone returns an independent copy of the set.
func (s SkillSet) Clone() SkillSet {
	if s == nil {
		return SkillSet{}
	}
	return slices.Clone(s)
}
