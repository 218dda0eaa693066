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
	"reflect"
	"runtime"

	"codeberg.org/gruf/go-errors/v2"
)

// Filter matches call frames against the identity of a single
// function value. The zero value Filter matches nothing and
// leaves snapshots untouched.
type Filter struct{ entry uintptr }

// NewFilter resolves fn to the entry program counter the runtime
// dispatches its calls through, i.e. the same function identity
// used at the actual call sites. Method values and closures
// resolve to the code they in fact execute, so wrapped callables
// match their activations transparently. fn must be a non-nil
// function value, anything else returns error.
func NewFilter(fn any) (Filter, error) {
	v := reflect.ValueOf(fn)

	if !v.IsValid() || v.Kind() != reflect.Func {
		return Filter{}, errors.Newf("not a function: %T", fn)
	}

	if v.IsNil() {
		return Filter{}, errors.New("nil function")
	}

	entry := v.Pointer()
	if f := runtime.FuncForPC(entry); f != nil {
		// Normalize an inner code pointer
		// to the function's entry point.
		entry = f.Entry()
	}

	return Filter{entry: entry}, nil
}

// IsZero returns whether this is the zero value Filter.
func (f Filter) IsZero() bool {
	return f.entry == 0
}

// Matches returns whether frame is an
// activation of the filter's function.
func (f Filter) Matches(frame Frame) bool {
	return f.entry != 0 && frame.Entry == f.entry
}

// Truncate returns the suffix of snapshot strictly older than
// the topmost (most recent, lowest index) activation of the
// filter's function, dropping the matched frame itself and every
// frame more recent than it. Only that single most recent
// occurrence is used as the cut point: deeper activations of the
// same function survive. A zero filter, or a function that never
// appears in snapshot, leaves it unchanged.
func (f Filter) Truncate(snapshot Snapshot) Snapshot {
	if f.entry == 0 {
		// No function to
		// match against.
		return snapshot
	}

	// Scan newest -> oldest for first match.
	for i := 0; i < len(snapshot); i++ {
		if snapshot[i].Entry == f.entry {
			return snapshot[i+1:]
		}
	}

	// Function never appears
	// on stack, a safe no-op.
	return snapshot
}
