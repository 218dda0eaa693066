// stacktrace
// Copyright (C) GoToSocial Authors admin@gotosocial.org
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package stack

import (
	"runtime"

	"codeberg.org/gruf/go-mempool"
)

const (
	// initial program counter
	// buffer length per stack walk.
	minBufLen = 64

	// largest walk buffer
	// we return to the pool.
	maxPooledBufLen = 4096
)

// pcBufPool pools the program counter buffers
// used (and regrown) during stack walks.
var pcBufPool = mempool.NewPool[[]uintptr](
	func() *[]uintptr {
		buf := make([]uintptr, minBufLen)
		return &buf
	},
	func(buf *[]uintptr) bool {
		// Drop buffers grown by pathological
		// stack depths, else they pin memory.
		return cap(*buf) <= maxPooledBufLen
	},
	nil,
)

// CapturePCs returns the raw program counters of the calling
// goroutine's stack, most recent call first. skip is the number
// of calling frames to exclude, 0 starting the walk at the
// caller of CapturePCs. The entire remaining stack is always
// walked, no matter its depth: any bounding of the result
// happens later, only after filtering.
func CapturePCs(skip int) []uintptr {
	bufp := pcBufPool.Get()
	buf := *bufp

	// skip+2 also excludes runtime.Callers
	// and the CapturePCs frame itself.
	n := runtime.Callers(skip+2, buf)

	for n == len(buf) {
		// Walk filled the whole buffer, so deeper
		// frames may have been missed. Regrow the
		// buffer and walk again from the top.
		buf = make([]uintptr, 2*len(buf))
		n = runtime.Callers(skip+2, buf)
	}

	// Copy walked counters out of
	// the reusable walk buffer.
	pcs := make([]uintptr, n)
	copy(pcs, buf[:n])

	// Release buf.
	*bufp = buf
	pcBufPool.Put(bufp)

	return pcs
}

// Capture walks the calling goroutine's stack and symbolizes
// it in one step, returning a Snapshot of call frames. skip is
// as for CapturePCs, i.e. 0 starts at the caller of Capture.
func Capture(skip int) Snapshot {
	return Expand(CapturePCs(skip + 1))
}

// Expand symbolizes raw program counters (as returned by
// CapturePCs) into a Snapshot of call frames, including
// separate frames for inlined calls.
func Expand(pcs []uintptr) Snapshot {
	if len(pcs) == 0 {
		return nil
	}

	// Gather frames from iter, which may return
	// more frames than len(pcs) due to inlining.
	frames := make(Snapshot, 0, len(pcs))
	iter := runtime.CallersFrames(pcs)
	for more := true; more; {
		var frame Frame
		frame, more = iter.Next()
		frames = append(frames, frame)
	}

	return frames
}
