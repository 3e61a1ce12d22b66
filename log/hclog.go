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

package log

import (
	"github.com/hashicorp/go-hclog"
)

// HCLog returns a hclog.Logger that writes messages through l. It is meant
// for passing to libraries that expect the hashicorp logging interface.
//
// Level filtering is left to hclog: debug and trace output is enabled only
// when l.Debug is set.
func (l Logger) HCLog() hclog.Logger {
	level := hclog.Info
	if l.Debug {
		level = hclog.Trace
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   l.Name,
		Level:  level,
		Output: l,
	})
}
