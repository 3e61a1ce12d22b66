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
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// Non-UTF-8 documents are decoded using the encoding named in the XML
// declaration, looked up in the IANA registry.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("config: unsupported charset: %s", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Read parses an XML document from r into a Node tree. location is used
// for error messages and node positions; it is usually a file path.
//
// ${name} references in attribute values and element text are resolved
// from vars, falling back to the process environment. A reference with no
// value and no ${name:default} fallback is an error. Pass nil vars to
// still get environment resolution.
func Read(r io.Reader, location string, vars map[string]string) (Node, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Node{}, fmt.Errorf("config: %s: %w", location, err)
	}
	return parse(raw, location, vars)
}

func parse(raw []byte, location string, vars map[string]string) (Node, error) {
	lines := newLineIndex(raw)

	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charsetReader

	var (
		root  Node
		stack []*Node
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Node{}, fmt.Errorf("config: %s: %w", location, err)
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			node := Node{
				Name: tok.Name.Local,
				File: location,
				Line: lines.at(dec.InputOffset()),
			}
			for _, attr := range tok.Attr {
				if attr.Name.Local == "xmlns" || attr.Name.Space == "xmlns" {
					continue
				}
				val, err := expandVars(attr.Value, vars)
				if err != nil {
					return Node{}, NodeErr(node, "%v", err)
				}
				node.Children = append(node.Children, Node{
					Name: attr.Name.Local,
					Args: []string{val},
					File: location,
					Line: node.Line,
				})
			}
			stack = append(stack, &node)
		case xml.EndElement:
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = *node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, *node)
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := strings.TrimSpace(string(tok))
			if text == "" {
				continue
			}
			node := stack[len(stack)-1]
			expanded, err := expandVars(text, vars)
			if err != nil {
				return Node{}, NodeErr(*node, "%v", err)
			}
			node.Args = append(node.Args, strings.Fields(expanded)...)
		}
	}

	if root.Name == "" {
		return Node{}, fmt.Errorf("config: %s: empty document", location)
	}
	return root, nil
}

const maxIncludeDepth = 16

// ReadFile loads an XML configuration file.
//
// The raw text is first rendered as a text/template (see renderTemplate)
// when it contains template actions, then parsed with ${name} references
// resolved from vars and the environment, and finally <include
// src="..."/> elements are replaced by the root children of the
// referenced files, resolved relative to the including file.
//
// If a file named like the configuration with a ".vars.properties"
// extension exists next to it, variables are loaded from it first;
// entries in vars take precedence.
func ReadFile(path string, vars map[string]string) (Node, error) {
	merged, err := fileVars(path, vars)
	if err != nil {
		return Node{}, err
	}
	return readFile(path, merged, 0)
}

func readFile(path string, vars map[string]string, depth int) (Node, error) {
	if depth > maxIncludeDepth {
		return Node{}, fmt.Errorf("config: %s: include nesting too deep", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Node{}, fmt.Errorf("config: %w", err)
	}

	raw, err = renderTemplate(raw, path, vars)
	if err != nil {
		return Node{}, err
	}

	root, err := parse(raw, path, vars)
	if err != nil {
		return Node{}, err
	}

	root.Children, err = expandIncludes(root.Children, filepath.Dir(path), vars, depth)
	if err != nil {
		return Node{}, err
	}
	return root, nil
}

func expandIncludes(nodes []Node, dir string, vars map[string]string, depth int) ([]Node, error) {
	out := make([]Node, 0, len(nodes))
	for _, node := range nodes {
		if node.Name != "include" {
			children, err := expandIncludes(node.Children, dir, vars, depth)
			if err != nil {
				return nil, err
			}
			node.Children = children
			out = append(out, node)
			continue
		}

		src := nodeAttr(node, "src")
		if src == "" {
			return nil, NodeErr(node, "missing src attribute")
		}
		if !filepath.IsAbs(src) {
			src = filepath.Join(dir, src)
		}

		included, err := readFile(src, vars, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, included.Children...)
	}
	return out, nil
}

func nodeAttr(node Node, name string) string {
	for _, child := range node.Children {
		if child.Name == name && len(child.Args) == 1 {
			return child.Args[0]
		}
	}
	return ""
}

type lineIndex struct {
	newlines []int64
}

func newLineIndex(raw []byte) lineIndex {
	var idx lineIndex
	for i, b := range raw {
		if b == '\n' {
			idx.newlines = append(idx.newlines, int64(i))
		}
	}
	return idx
}

func (idx lineIndex) at(offset int64) int {
	return sort.Search(len(idx.newlines), func(i int) bool {
		return idx.newlines[i] >= offset
	}) + 1
}
