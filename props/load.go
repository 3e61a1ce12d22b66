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
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Load reads properties in the line-based .properties format from r and
// appends them to p.
//
// Supported syntax: 'key = value' and 'key: value' pairs, '#' and '!'
// comment lines, backslash line continuation and \t \n \r \\ \:  \=
// and \uXXXX escapes. A key occurring multiple times accumulates values
// instead of being overwritten.
func (p *Properties) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineno := 0
	var logical strings.Builder
	for scanner.Scan() {
		lineno++
		line := strings.TrimLeft(scanner.Text(), " \t")

		if logical.Len() == 0 && (line == "" || line[0] == '#' || line[0] == '!') {
			continue
		}

		if strings.HasSuffix(line, "\\") && !strings.HasSuffix(line, "\\\\") {
			logical.WriteString(line[:len(line)-1])
			continue
		}
		logical.WriteString(line)

		key, value, err := splitPair(logical.String())
		logical.Reset()
		if err != nil {
			return fmt.Errorf("props: line %d: %w", lineno, err)
		}
		p.Add(key, value)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("props: %w", err)
	}
	if logical.Len() != 0 {
		key, value, err := splitPair(logical.String())
		if err != nil {
			return fmt.Errorf("props: line %d: %w", lineno, err)
		}
		p.Add(key, value)
	}
	return nil
}

func splitPair(line string) (key, value string, err error) {
	sep := -1
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] == '=' || line[i] == ':' {
			sep = i
			break
		}
	}
	if sep == -1 {
		return "", "", fmt.Errorf("missing '=' or ':' separator")
	}

	key, err = unescape(strings.TrimSpace(line[:sep]))
	if err != nil {
		return "", "", err
	}
	if key == "" {
		return "", "", fmt.Errorf("empty key")
	}
	value, err = unescape(strings.TrimSpace(line[sep+1:]))
	if err != nil {
		return "", "", err
	}
	return key, value, nil
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil
	}

	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			out.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("trailing backslash")
		}
		switch s[i] {
		case 't':
			out.WriteByte('\t')
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("truncated \\u escape")
			}
			code, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad \\u escape: %v", err)
			}
			out.WriteRune(rune(code))
			i += 4
		default:
			// \\, \:, \=, \  and any other escaped literal.
			out.WriteByte(s[i])
		}
	}
	return out.String(), nil
}

func escape(s string, isKey bool) string {
	var out strings.Builder
	for _, r := range s {
		switch r {
		case '\t':
			out.WriteString(`\t`)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		case '\\':
			out.WriteString(`\\`)
		case '=', ':':
			if isKey {
				out.WriteByte('\\')
			}
			out.WriteRune(r)
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

// Store writes p in the .properties format, one 'key = value' line per
// value, keys sorted. Multi-valued keys produce repeated lines, which
// Load reads back into multiple values.
func (p *Properties) Store(w io.Writer) error {
	keys := make([]string, 0, len(p.m))
	for k := range p.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bw := bufio.NewWriter(w)
	for _, key := range keys {
		for _, value := range p.m[key] {
			fmt.Fprintf(bw, "%s = %s\n", escape(key, true), escape(value, false))
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("props: %w", err)
	}
	return nil
}
