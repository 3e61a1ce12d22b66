/*
go-commons - Cross-cutting utility helpers for Go services.
Copyright © 2020-2021 Max Mazurov <fox.cpp@disroot.org>, go-commons contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package textmatch implements configurable text matching and
// replacement. A Matcher describes what to look for (a literal, a
// wildcard pattern or a regular expression) and how (case sensitivity,
// full vs. partial match); Compile turns it into a reusable Pattern.
package textmatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Method selects how Matcher.Pattern is interpreted.
type Method string

const (
	// Basic matches the pattern as a literal substring (or the whole
	// string, without Partial).
	Basic Method = "basic"
	// Wildcard matches with '*' standing for any run of characters and
	// '?' for exactly one.
	Wildcard Method = "wildcard"
	// Regexp matches using Go regular expression syntax.
	Regexp Method = "regexp"
)

// Matcher describes a text matching operation. The zero value matches
// every string (empty literal, partial). Matcher values are plain data
// and can be stored in configuration structures; call Compile to use
// them.
type Matcher struct {
	Pattern    string
	Method     Method
	IgnoreCase bool
	// Partial accepts a match anywhere in the input instead of
	// requiring the whole input to match.
	Partial bool
}

// Pattern is a compiled Matcher, safe for concurrent use.
type Pattern struct {
	re     *regexp.Regexp
	regexp bool
}

// Compile validates the Matcher and builds a Pattern from it.
func (m Matcher) Compile() (*Pattern, error) {
	var expr string
	switch m.Method {
	case Basic, "":
		expr = regexp.QuoteMeta(m.Pattern)
	case Wildcard:
		expr = wildcardToRegexp(m.Pattern)
	case Regexp:
		expr = m.Pattern
	default:
		return nil, fmt.Errorf("textmatch: unknown method: %s", m.Method)
	}

	if !m.Partial {
		expr = "^(?:" + expr + ")$"
	}
	if m.IgnoreCase {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("textmatch: %w", err)
	}
	return &Pattern{re: re, regexp: m.Method == Regexp}, nil
}

func wildcardToRegexp(pattern string) string {
	var expr strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			expr.WriteString(".*")
		case '?':
			expr.WriteString(".")
		default:
			expr.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return expr.String()
}

// MatchString reports whether s matches the pattern.
func (p *Pattern) MatchString(s string) bool {
	return p.re.MatchString(s)
}

// Replace substitutes every match in s with repl. For the Regexp method,
// $1-style group references in repl are expanded; for Basic and Wildcard
// repl is inserted literally.
func (p *Pattern) Replace(s, repl string) string {
	if p.regexp {
		return p.re.ReplaceAllString(s, repl)
	}
	return p.re.ReplaceAllLiteralString(s, repl)
}

// FindAll returns all matched substrings in s.
func (p *Pattern) FindAll(s string) []string {
	return p.re.FindAllString(s, -1)
}

// Match is a convenience shortcut: it compiles m and matches s against
// it, reporting false on compile errors.
func (m Matcher) Match(s string) bool {
	p, err := m.Compile()
	if err != nil {
		return false
	}
	return p.MatchString(s)
}
