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
	"encoding/xml"
	"fmt"
	"io"
	"sort"
)

type xmlProperties struct {
	XMLName xml.Name      `xml:"properties"`
	Entries []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// LoadXML reads properties in the XML format from r and appends them to
// p:
//
//	<properties>
//	   <property name="key">value</property>
//	</properties>
//
// Repeated names accumulate values.
func (p *Properties) LoadXML(r io.Reader) error {
	var doc xmlProperties
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("props: %w", err)
	}

	for _, entry := range doc.Entries {
		if entry.Name == "" {
			return fmt.Errorf("props: property element without name attribute")
		}
		p.Add(entry.Name, entry.Value)
	}
	return nil
}

// StoreXML writes p in the XML format understood by LoadXML, keys
// sorted, one property element per value.
func (p *Properties) StoreXML(w io.Writer) error {
	keys := make([]string, 0, len(p.m))
	for k := range p.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := xmlProperties{}
	for _, key := range keys {
		for _, value := range p.m[key] {
			doc.Entries = append(doc.Entries, xmlProperty{Name: key, Value: value})
		}
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("props: %w", err)
	}
	// Trailing newline after the closing tag.
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("props: %w", err)
	}
	return nil
}
