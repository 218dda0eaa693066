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

// Package stacktrace provides error values that capture the calling
// goroutine's stack at construction time, with optional removal of
// caller-specified wrapper frames and an ambient length limit.
//
// The frame selection pipeline is fixed: capture the full stack, cut
// away the topmost activation of the FramesAbove function and every
// frame more recent than it, then bound what remains. Because bounding
// runs last, omitted wrapper frames never eat into the frame budget.
package stacktrace

import (
	"fmt"
	"sync"

	"code.superseriousbusiness.org/stacktrace/internal/config"
	"code.superseriousbusiness.org/stacktrace/internal/stack"
)

// DefaultName is the name given to
// errors constructed without WithName.
const DefaultName = "Error"

// Error is an error value carrying a name, message, optional
// wrapped cause, and a bounded stack trace captured at the
// point of its construction.
type Error struct {
	name  string
	msg   string
	cause error

	// trace state. The raw program counters, the resolved
	// filter identity and the ambient limit are all fixed
	// at construction; symbolizing + filtering + bounding
	// runs at most once, on first access.
	once   sync.Once
	pcs    []uintptr
	filter stack.Filter
	limit  int
	frames stack.Snapshot
}

// New returns a new Error with the given message, capturing the
// calling goroutine's stack at the point of the call. All options
// are validated before any capture happens: an invalid option
// value (e.g. a non-function passed to FramesAbove) aborts
// construction, returning a nil Error and the validation error.
func New(msg string, opts ...Option) (*Error, error) {
	return newError(msg, 1, opts)
}

// Newf is New with printf-style message formatting.
func Newf(format string, args ...any) (*Error, error) {
	return newError(fmt.Sprintf(format, args...), 1, nil)
}

// Wrap returns a new Error wrapping cause with the given message,
// capturing the calling goroutine's stack as New does. The cause
// is retrievable via Unwrap (and the standard errors helpers).
func Wrap(cause error, msg string, opts ...Option) (*Error, error) {
	e, err := newError(msg, 1, opts)
	if err != nil {
		return nil, err
	}
	e.cause = cause
	return e, nil
}

// newError validates opts then captures. skip counts the exported
// constructor frames between newError and the caller's code, so
// that neither this function nor the constructor appear in the
// snapshot: index 0 is the frame that invoked the constructor.
func newError(msg string, skip int, opts []Option) (*Error, error) {
	var s settings

	// Validate every option up
	// front, before any capture.
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return nil, err
		}
	}

	if s.name == "" {
		s.name = DefaultName
	}

	return &Error{
		name:   s.name,
		msg:    msg,
		cause:  s.cause,
		pcs:    stack.CapturePCs(skip + 1),
		filter: s.filter,
		limit:  config.TraceLimit(),
	}, nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.name + ": " + e.msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Name returns the error's name.
func (e *Error) Name() string {
	return e.name
}

// Message returns the error's message.
func (e *Error) Message() string {
	return e.msg
}

// Trace returns the error's bounded stack trace, most recent frame
// first. The trace is materialized from the raw construction-time
// counters on first call and memoized: repeated calls observe the
// exact same frames, and mutating the global trace limit after
// construction has no effect on this error.
func (e *Error) Trace() stack.Snapshot {
	e.once.Do(func() {
		frames := stack.Expand(e.pcs)
		frames = e.filter.Truncate(frames)
		e.frames = frames.Limit(e.limit)

		// Raw counters are
		// no longer needed.
		e.pcs = nil
	})
	return e.frames
}
