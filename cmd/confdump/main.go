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

// confdump loads XML configuration files the same way library users do
// and shows the result, making it easy to debug variable substitution,
// includes and templating without running the actual application.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/foxcpp/go-commons/config"
	"github.com/foxcpp/go-commons/log"
	"github.com/foxcpp/go-commons/props"
)

func main() {
	app := &cli.App{
		Name:  "confdump",
		Usage: "configuration loading debug utility",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "var",
				Usage: "define a substitution variable (`NAME=VALUE`), can be repeated",
			},
			&cli.StringFlag{
				Name:  "vars",
				Usage: "load substitution variables from a properties `FILE`",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug log",
			},
		},
		Before: func(ctx *cli.Context) error {
			log.DefaultLogger.Debug = ctx.Bool("debug")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Load the configuration file and report errors, if any",
				ArgsUsage: "FILE",
				Action:    checkCommand,
			},
			{
				Name:      "dump",
				Usage:     "Load the configuration file and print the resulting tree",
				ArgsUsage: "FILE",
				Action:    dumpCommand,
			},
			{
				Name:      "props",
				Usage:     "Load the configuration file and print it as flattened properties",
				ArgsUsage: "FILE",
				Action:    propsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func loadTree(ctx *cli.Context) (config.Node, error) {
	path := ctx.Args().First()
	if path == "" {
		return config.Node{}, cli.Exit("Error: FILE is required", 2)
	}

	vars, err := collectVars(ctx)
	if err != nil {
		return config.Node{}, err
	}

	return config.ReadFile(path, vars)
}

func collectVars(ctx *cli.Context) (map[string]string, error) {
	vars := map[string]string{}

	if varsFile := ctx.String("vars"); varsFile != "" {
		f, err := os.Open(varsFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		p := props.New()
		if err := p.Load(f); err != nil {
			return nil, fmt.Errorf("%s: %w", varsFile, err)
		}
		for _, key := range p.Keys() {
			val, _ := p.Get(key)
			vars[key] = val
		}
	}

	for _, def := range ctx.StringSlice("var") {
		name, val, ok := strings.Cut(def, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --var: %s", def)
		}
		vars[name] = val
	}

	return vars, nil
}

func checkCommand(ctx *cli.Context) error {
	if _, err := loadTree(ctx); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func dumpCommand(ctx *cli.Context) error {
	root, err := loadTree(ctx)
	if err != nil {
		return err
	}
	dumpNode(os.Stdout, root, 0)
	return nil
}

func dumpNode(w io.Writer, node config.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	line := node.Name
	if len(node.Args) != 0 {
		line += " " + strings.Join(node.Args, " ")
	}

	if len(node.Children) == 0 {
		fmt.Fprintf(w, "%s%s\n", indent, line)
		return
	}

	fmt.Fprintf(w, "%s%s {\n", indent, line)
	for _, child := range node.Children {
		dumpNode(w, child, depth+1)
	}
	fmt.Fprintf(w, "%s}\n", indent)
}

func propsCommand(ctx *cli.Context) error {
	root, err := loadTree(ctx)
	if err != nil {
		return err
	}
	return flattenTree(root).Store(os.Stdout)
}

// flattenTree converts the configuration tree into properties: element
// names joined with dots form keys, element values become values.
// Repeated elements accumulate into multi-valued keys. The root element
// is a wrapper and contributes no key component.
func flattenTree(root config.Node) *props.Properties {
	p := props.New()
	for _, child := range root.Children {
		flattenNode(p, "", child)
	}
	return p
}

func flattenNode(p *props.Properties, prefix string, node config.Node) {
	key := node.Name
	if prefix != "" {
		key = prefix + "." + node.Name
	}

	if len(node.Args) != 0 {
		p.Add(key, node.Args...)
	}
	for _, child := range node.Children {
		flattenNode(p, key, child)
	}
}
