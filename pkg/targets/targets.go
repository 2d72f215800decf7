// Package targets expands a vanity string into the set of identifier
// prefixes a worker accepts.
package targets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LiteralLen is the number of leading characters that are never case
// permuted. They select the identifier kind ("Pt", "Ps", ...) and are always
// written as given.
const LiteralLen = 2

// Base58 charset (excludes 0, O, I, l)
const base58Charset = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ErrInvalidInput is returned for vanity strings that cannot form a set.
var ErrInvalidInput = errors.New("invalid vanity string")

// Set is an immutable set of equal-length prefixes.
type Set struct {
	members map[string]struct{}
	length  int
}

// Build returns the target set for vanity. With ignoreCase every case
// combination of the characters after the first LiteralLen is accepted.
func Build(vanity string, ignoreCase bool) (*Set, error) {
	if vanity == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidInput)
	}

	if !ignoreCase {
		return newSet([]string{vanity}), nil
	}

	if utf8.RuneCountInString(vanity) < LiteralLen {
		return nil, fmt.Errorf("%w: %q needs at least %d characters for case-insensitive matching",
			ErrInvalidInput, vanity, LiteralLen)
	}

	split := literalSplit(vanity)
	literal, rest := vanity[:split], vanity[split:]
	perms := CapitalizationPermutations(rest)
	for i, p := range perms {
		perms[i] = literal + p
	}
	return newSet(perms), nil
}

func newSet(members []string) *Set {
	s := &Set{
		members: make(map[string]struct{}, len(members)),
		length:  len(members[0]),
	}
	for _, m := range members {
		s.members[m] = struct{}{}
	}
	return s
}

// literalSplit returns the byte index just past the first LiteralLen runes.
func literalSplit(s string) int {
	i := 0
	for n := 0; n < LiteralLen; n++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

// CapitalizationPermutations returns every upper/lower case combination of
// s. Characters without a case variant contribute a single branch, so the
// result has 2^k entries where k counts the cased characters.
func CapitalizationPermutations(s string) []string {
	if s == "" {
		return []string{""}
	}

	first, size := utf8.DecodeRuneInString(s)
	upper, lower := unicode.ToUpper(first), unicode.ToLower(first)

	rest := CapitalizationPermutations(s[size:])
	result := make([]string, 0, 2*len(rest))
	for _, p := range rest {
		result = append(result, string(upper)+p)
		if upper != lower {
			result = append(result, string(lower)+p)
		}
	}
	return result
}

// Contains reports whether prefix is a member.
func (s *Set) Contains(prefix string) bool {
	_, ok := s.members[prefix]
	return ok
}

// Matches reports whether id starts with a member.
func (s *Set) Matches(id string) bool {
	if len(id) < s.length {
		return false
	}
	return s.Contains(id[:s.length])
}

// PrefixLength is the byte length shared by every member.
func (s *Set) PrefixLength() int {
	return s.length
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.members)
}

// Members returns the members in sorted order.
func (s *Set) Members() []string {
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// String renders the set for log lines.
func (s *Set) String() string {
	return "{" + strings.Join(s.Members(), ", ") + "}"
}

// InvalidBase58Chars returns any characters in vanity that can never appear
// in an identifier.
func InvalidBase58Chars(vanity string) []rune {
	var invalid []rune
	for _, c := range vanity {
		if !strings.ContainsRune(base58Charset, c) {
			invalid = append(invalid, c)
		}
	}
	return invalid
}
