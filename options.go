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

package stacktrace

import (
	"code.superseriousbusiness.org/stacktrace/internal/stack"
	"codeberg.org/gruf/go-errors/v2"
)

// settings collects validated option
// values ahead of any stack capture.
type settings struct {
	name   string
	cause  error
	filter stack.Filter
}

// Option configures the construction of one Error. Options are
// validated in order, before capture; the first failing option
// aborts construction.
type Option func(*settings) error

// FramesAbove marks fn as the cut point for stack truncation: the
// most recent activation of fn, and every frame more recent than
// it, are omitted from the error's trace. Frames omitted this way
// never count against the ambient trace limit. fn must be a
// function value (plain function, closure or method value), else
// construction fails. A fn that never appears on the stack at
// capture time is a harmless no-op.
func FramesAbove(fn any) Option {
	return func(s *settings) error {
		filter, err := stack.NewFilter(fn)
		if err != nil {
			return errors.Wrap(err, "invalid frames-above value")
		}
		s.filter = filter
		return nil
	}
}

// WithName sets the error's name,
// in place of DefaultName.
func WithName(name string) Option {
	return func(s *settings) error {
		s.name = name
		return nil
	}
}

// WithCause sets a wrapped cause
// on the constructed error.
func WithCause(cause error) Option {
	return func(s *settings) error {
		s.cause = cause
		return nil
	}
}
