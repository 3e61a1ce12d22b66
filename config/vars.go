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

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/foxcpp/go-commons/props"
)

var varRef = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)(:[^}]*)?\}`)

// expandVars resolves ${name} and ${name:default} references in s.
// Lookup order: vars map, then the process environment, then the inline
// default. A reference with no value anywhere is an error.
func expandVars(s string, vars map[string]string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var missing []string
	expanded := varRef.ReplaceAllStringFunc(s, func(ref string) string {
		groups := varRef.FindStringSubmatch(ref)
		name := groups[1]

		if val, ok := vars[name]; ok {
			return val
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if groups[2] != "" {
			return groups[2][1:] // strip the leading colon
		}

		missing = append(missing, name)
		return ""
	})
	if len(missing) != 0 {
		return "", fmt.Errorf("undefined variable(s): %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// fileVars merges variables loaded from the configuration's sibling
// ".vars.properties" file (if any) with explicitly passed ones. Explicit
// values win.
func fileVars(cfgPath string, vars map[string]string) (map[string]string, error) {
	varsPath := strings.TrimSuffix(cfgPath, ".xml") + ".vars.properties"
	f, err := os.Open(varsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return vars, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	p := props.New()
	if err := p.Load(f); err != nil {
		return nil, fmt.Errorf("config: %s: %w", varsPath, err)
	}

	merged := make(map[string]string, len(vars)+len(p.Keys()))
	for _, key := range p.Keys() {
		merged[key], _ = p.Get(key)
	}
	for k, v := range vars {
		merged[k] = v
	}
	return merged, nil
}
