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
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// renderTemplate runs the raw configuration text through text/template
// when it contains template actions. Variables are accessible as
// {{.name}}; the env function looks up environment variables. Files
// without template actions are returned unchanged, so plain XML does not
// pay for an extra parse.
func renderTemplate(raw []byte, path string, vars map[string]string) ([]byte, error) {
	if !bytes.Contains(raw, []byte("{{")) {
		return raw, nil
	}

	tmpl, err := template.New(path).Option("missingkey=error").Funcs(template.FuncMap{
		"env": os.Getenv,
	}).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	data := make(map[string]string, len(vars))
	for k, v := range vars {
		data[k] = v
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return rendered.Bytes(), nil
}
