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

// Package props implements a multi-valued string-keyed property map with
// type coercion and support for the common .properties and XML property
// file formats.
package props

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoKey is returned by typed getters when the key has no values.
var ErrNoKey = errors.New("props: no such key")

// Properties is a string-keyed map where each key holds one or more
// string values. The zero value is not usable, use New or
// NewCaseInsensitive.
//
// Properties is not safe for concurrent modification.
type Properties struct {
	foldCase bool
	m        map[string][]string
}

// New creates an empty Properties map with case-sensitive keys.
func New() *Properties {
	return &Properties{m: map[string][]string{}}
}

// NewCaseInsensitive creates an empty Properties map that folds key case
// on all accesses. Keys reported by Keys are lowercase.
func NewCaseInsensitive() *Properties {
	return &Properties{foldCase: true, m: map[string][]string{}}
}

func (p *Properties) key(key string) string {
	if p.foldCase {
		return strings.ToLower(key)
	}
	return key
}

// Get returns the first value of key.
func (p *Properties) Get(key string) (string, bool) {
	vals := p.m[p.key(key)]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// GetAll returns all values of key in insertion order. The returned slice
// must not be modified.
func (p *Properties) GetAll(key string) []string {
	return p.m[p.key(key)]
}

// Set replaces all values of key.
func (p *Properties) Set(key string, values ...string) {
	if len(values) == 0 {
		p.Delete(key)
		return
	}
	p.m[p.key(key)] = append([]string(nil), values...)
}

// Add appends values to key, keeping existing ones.
func (p *Properties) Add(key string, values ...string) {
	k := p.key(key)
	p.m[k] = append(p.m[k], values...)
}

// Delete removes key and all its values.
func (p *Properties) Delete(key string) {
	delete(p.m, p.key(key))
}

// Keys returns all keys in sorted order.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.m))
	for k := range p.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct keys.
func (p *Properties) Len() int {
	return len(p.m)
}

// Merge appends all values from other into p.
func (p *Properties) Merge(other *Properties) {
	for k, vals := range other.m {
		p.Add(k, vals...)
	}
}
