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

// Package config implements XML-backed configuration loading: files are
// optionally rendered as templates, parsed into a generic element tree
// with ${name} references resolved, and mapped onto Go variables using
// the reflection-based Map type.
package config

import (
	"fmt"
)

// Node describes a parsed configuration element.
//
//	<name attr="arg">
//	   <child0/>
//	   <child1/>
//	</name>
//
// Attributes are represented as leading child nodes with a single
// argument each, so directives can be written either as attributes or as
// nested elements interchangeably. Text content of the element is split
// on whitespace into Args.
type Node struct {
	// Name is the XML element name.
	Name string
	// Args are the whitespace-separated fields of the element text, or
	// the attribute value for attribute-derived nodes.
	Args []string

	// Children contains nested elements and attribute-derived nodes. Can
	// be nil.
	Children []Node

	// File is the name of the node's source file.
	File string

	// Line is the line number where the element starts in the source
	// file.
	Line int
}

// NodeErr returns an error describing a problem with the passed node,
// prefixed with its source position when known.
func NodeErr(node Node, f string, args ...interface{}) error {
	if node.File == "" {
		return fmt.Errorf(f, args...)
	}
	return fmt.Errorf("%s:%d: %s", node.File, node.Line, fmt.Sprintf(f, args...))
}
