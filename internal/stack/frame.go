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

// Package stack provides capture, filtering and bounding
// of the calling goroutine's stack of call frames.
package stack

import (
	"encoding/json"
	"runtime"
	"strconv"
	"strings"

	"codeberg.org/gruf/go-byteutil"
)

// Frame is a single activation record on the call stack. The
// runtime's entry program counter (Frame.Entry) acts as the
// frame's function identity; the remaining fields are carried
// opaquely for rendering. Frames are never modified once
// captured, all operations on a Snapshot return subslices.
type Frame = runtime.Frame

// Snapshot is an ordered series of call frames, index 0
// being the most recently entered frame, increasing indices
// being older frames. Order is fixed at capture time.
type Snapshot []Frame

// Limit bounds the snapshot to at most n of its most recent
// frames, preserving order. Negative n means unbounded. Frames
// already removed by filtering were never part of the receiver,
// so they cannot count against n.
func (s Snapshot) Limit(n int) Snapshot {
	if n < 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

// String renders the snapshot in conventional
// "func()\n\tfile:line" form, most recent frame first.
func (s Snapshot) String() string {
	// Guess-timate to reduce allocs.
	buf := byteutil.Buffer{B: make([]byte, 0, 64*len(s))}
	for i := 0; i < len(s); i++ {
		frame := s[i]

		// Append formatted frame info.
		buf.B = append(buf.B, FuncName(frame)...)
		buf.B = append(buf.B, "()\n\t"...)
		buf.B = append(buf.B, frame.File...)
		buf.B = append(buf.B, ':')
		buf.B = strconv.AppendInt(buf.B, int64(frame.Line), 10)
		buf.B = append(buf.B, '\n')
	}
	return buf.String()
}

// MarshalJSON implements json.Marshaler
// to provide an easy, simple default.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type jsonFrame struct {
		Func string `json:"func"`
		File string `json:"file"`
		Line int    `json:"line"`
	}

	// Convert each frame to jsonFrame object.
	jsonFrames := make([]jsonFrame, len(s))
	for i := 0; i < len(s); i++ {
		frame := s[i]
		jsonFrames[i] = jsonFrame{
			Func: FuncName(frame),
			File: frame.File,
			Line: frame.Line,
		}
	}

	// Marshal converted frames.
	return json.Marshal(jsonFrames)
}

// FuncName formats a frame's function name to a quickly-readable string.
func FuncName(frame Frame) string {
	name := frame.Function
	if name == "" && frame.Func != nil {
		name = frame.Func.Name()
	}

	// Drop all but the package name and function name, no mod path
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}

	const params = `[...]`

	// Drop any generic type parameter markers
	if idx := strings.Index(name, params); idx >= 0 {
		name = name[:idx] + name[idx+len(params):]
	}

	return name
}
