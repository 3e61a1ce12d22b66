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

// Querying pool-wide memory usage takes the factory lock and walks all
// live streams, so the tracker caches the answer and refreshes it at most
// once per poolCheckEvery admitted bytes. Between refreshes the cached
// value is advisory only.
const poolCheckEvery = 1024

// tracker answers whether a stream may keep N more bytes in memory,
// honoring the smaller of the pool-remaining and instance-remaining
// capacity.
type tracker struct {
	f           *Factory
	instanceMax int64

	poolFree   int64
	sinceCheck int64
}

func newTracker(f *Factory) *tracker {
	return &tracker{
		f:           f,
		instanceMax: f.instanceMax,
		// Force a pool query on the first fits call.
		sinceCheck: poolCheckEvery,
	}
}

// fits reports whether n more bytes may be buffered in memory by a stream
// already holding used bytes. A false result is the signal to spill.
func (t *tracker) fits(used, n int64) bool {
	if used+n > t.instanceMax {
		return false
	}

	if t.sinceCheck >= poolCheckEvery {
		t.poolFree = t.f.PoolRemaining()
		t.sinceCheck = 0
	}
	if n > t.poolFree {
		// Refresh once more before giving up, the cached value may be
		// stale.
		t.poolFree = t.f.PoolRemaining()
		t.sinceCheck = 0
		if n > t.poolFree {
			return false
		}
	}

	t.poolFree -= n
	t.sinceCheck += n
	return true
}
