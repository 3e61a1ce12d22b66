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

package streamcache

import "github.com/prometheus/client_golang/prometheus"

var openStreams = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "gocommons",
		Subsystem: "streamcache",
		Name:      "open_streams",
		Help:      "Cached streams that are created and not yet closed",
	},
	[]string{"kind"},
)

var spillsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gocommons",
		Subsystem: "streamcache",
		Name:      "spills_total",
		Help:      "Streams that outgrew their in-memory budget and moved to disk",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(openStreams)
	prometheus.MustRegister(spillsTotal)
}
