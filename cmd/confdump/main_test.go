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

package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/foxcpp/go-commons/config"
)

func TestFlattenTree(t *testing.T) {
	doc := `<crawler maxDepth="5">
	<limits>
		<timeout>30s</timeout>
		<rate>10 20</rate>
	</limits>
	<host>alpha</host>
	<host>beta</host>
</crawler>`

	root, err := config.Read(strings.NewReader(doc), "test.xml", nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	p := flattenTree(root)

	// The root element name is not part of the keys.
	if val, _ := p.Get("maxDepth"); val != "5" {
		t.Errorf("wrong maxDepth: %q", val)
	}
	// Nested elements produce dotted keys.
	if val, _ := p.Get("limits.timeout"); val != "30s" {
		t.Errorf("wrong limits.timeout: %q", val)
	}
	if got := p.GetAll("limits.rate"); !reflect.DeepEqual(got, []string{"10", "20"}) {
		t.Errorf("wrong limits.rate: %v", got)
	}
	// Repeated elements accumulate into a multi-valued key.
	if got := p.GetAll("host"); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("wrong host values: %v", got)
	}

	var out strings.Builder
	if err := p.Store(&out); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.Contains(out.String(), "limits.timeout = 30s") {
		t.Errorf("flattened output missing entry:\n%s", out.String())
	}
}
