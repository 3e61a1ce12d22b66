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

package props

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Typed getters coerce the first value of a key. Absent keys are reported
// as ErrNoKey, malformed values as a coercion error. The *Default
// variants swallow both and return the fallback instead.

func (p *Properties) Int(key string) (int, error) {
	val, ok := p.Get(key)
	if !ok {
		return 0, ErrNoKey
	}
	i, err := cast.ToIntE(val)
	if err != nil {
		return 0, fmt.Errorf("props: %s: %w", key, err)
	}
	return i, nil
}

func (p *Properties) IntDefault(key string, def int) int {
	i, err := p.Int(key)
	if err != nil {
		return def
	}
	return i
}

func (p *Properties) Int64(key string) (int64, error) {
	val, ok := p.Get(key)
	if !ok {
		return 0, ErrNoKey
	}
	i, err := cast.ToInt64E(val)
	if err != nil {
		return 0, fmt.Errorf("props: %s: %w", key, err)
	}
	return i, nil
}

func (p *Properties) Int64Default(key string, def int64) int64 {
	i, err := p.Int64(key)
	if err != nil {
		return def
	}
	return i
}

func (p *Properties) Float(key string) (float64, error) {
	val, ok := p.Get(key)
	if !ok {
		return 0, ErrNoKey
	}
	f, err := cast.ToFloat64E(val)
	if err != nil {
		return 0, fmt.Errorf("props: %s: %w", key, err)
	}
	return f, nil
}

func (p *Properties) FloatDefault(key string, def float64) float64 {
	f, err := p.Float(key)
	if err != nil {
		return def
	}
	return f
}

func (p *Properties) Bool(key string) (bool, error) {
	val, ok := p.Get(key)
	if !ok {
		return false, ErrNoKey
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return false, fmt.Errorf("props: %s: %w", key, err)
	}
	return b, nil
}

func (p *Properties) BoolDefault(key string, def bool) bool {
	b, err := p.Bool(key)
	if err != nil {
		return def
	}
	return b
}

func (p *Properties) Duration(key string) (time.Duration, error) {
	val, ok := p.Get(key)
	if !ok {
		return 0, ErrNoKey
	}
	d, err := cast.ToDurationE(val)
	if err != nil {
		return 0, fmt.Errorf("props: %s: %w", key, err)
	}
	return d, nil
}

func (p *Properties) DurationDefault(key string, def time.Duration) time.Duration {
	d, err := p.Duration(key)
	if err != nil {
		return def
	}
	return d
}

func (p *Properties) Time(key, layout string) (time.Time, error) {
	val, ok := p.Get(key)
	if !ok {
		return time.Time{}, ErrNoKey
	}
	t, err := time.Parse(layout, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("props: %s: %w", key, err)
	}
	return t, nil
}

func (p *Properties) TimeDefault(key, layout string, def time.Time) time.Time {
	t, err := p.Time(key, layout)
	if err != nil {
		return def
	}
	return t
}

func (p *Properties) String(key, def string) string {
	val, ok := p.Get(key)
	if !ok {
		return def
	}
	return val
}
