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
	"encoding/json"

	"codeberg.org/gruf/go-byteutil"
)

// Stack renders the error header ("name: message") followed by its
// bounded stack trace, one "func()\n\tfile:line" entry per frame,
// most recent frame first.
func (e *Error) Stack() string {
	trace := e.Trace()

	var buf byteutil.Buffer
	buf.B = append(buf.B, e.name...)
	buf.B = append(buf.B, ": "...)
	buf.B = append(buf.B, e.msg...)
	buf.B = append(buf.B, '\n')
	buf.B = append(buf.B, trace.String()...)

	return buf.String()
}

// MarshalJSON implements json.Marshaler, rendering the error with
// its name, message, cause (stringified, if any) and trace frames.
func (e *Error) MarshalJSON() ([]byte, error) {
	type jsonError struct {
		Name    string          `json:"name"`
		Message string          `json:"message"`
		Cause   string          `json:"cause,omitempty"`
		Trace   json.RawMessage `json:"trace"`
	}

	trace, err := e.Trace().MarshalJSON()
	if err != nil {
		return nil, err
	}

	out := jsonError{
		Name:    e.name,
		Message: e.msg,
		Trace:   trace,
	}
	if e.cause != nil {
		out.Cause = e.cause.Error()
	}

	return json.Marshal(out)
}
