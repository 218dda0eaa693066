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

// Package log provides a small structured, leveled
// logger for this module's command-line surfaces.
package log

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"code.superseriousbusiness.org/stacktrace/internal/stack"
	"codeberg.org/gruf/go-byteutil"
	"codeberg.org/gruf/go-debug"
	"codeberg.org/gruf/go-kv/v2"
)

// Level is a log severity level.
type Level uint8

const (
	ERROR Level = 50
	WARN  Level = 100
	INFO  Level = 150
	DEBUG Level = 200
)

// String returns a human readable form of Level.
func (lvl Level) String() string {
	switch lvl {
	case ERROR:
		return "ERROR"
	case WARN:
		return "WARN"
	case INFO:
		return "INFO"
	case DEBUG:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

var (
	// protects level
	// and output below.
	mu sync.Mutex

	// current log level.
	level = INFO

	// where output is written.
	output io.Writer = os.Stderr
)

// SetLevel sets the maximum level of entries that get written.
func SetLevel(lvl Level) {
	mu.Lock()
	level = lvl
	mu.Unlock()
}

// SetOutput sets the log output writer.
func SetOutput(out io.Writer) {
	mu.Lock()
	output = out
	mu.Unlock()
}

// Entry is an in-progress log entry
// accumulating structured fields.
type Entry struct {
	fields []kv.Field
}

// WithField returns a new Entry with given key-value field appended.
func WithField(key string, value any) Entry {
	return Entry{fields: []kv.Field{{K: key, V: value}}}
}

// WithField returns a copy of entry with given key-value field appended.
func (e Entry) WithField(key string, value any) Entry {
	fields := make([]kv.Field, len(e.fields), len(e.fields)+1)
	copy(fields, e.fields)
	fields = append(fields, kv.Field{K: key, V: value})
	return Entry{fields: fields}
}

func (e Entry) Debugf(format string, args ...any) { logf(DEBUG, e.fields, format, args...) }
func (e Entry) Infof(format string, args ...any)  { logf(INFO, e.fields, format, args...) }
func (e Entry) Warnf(format string, args ...any)  { logf(WARN, e.fields, format, args...) }
func (e Entry) Errorf(format string, args ...any) { logf(ERROR, e.fields, format, args...) }

func Debugf(format string, args ...any) { logf(DEBUG, nil, format, args...) }
func Infof(format string, args ...any)  { logf(INFO, nil, format, args...) }
func Warnf(format string, args ...any)  { logf(WARN, nil, format, args...) }
func Errorf(format string, args ...any) { logf(ERROR, nil, format, args...) }

func logf(lvl Level, fields []kv.Field, format string, args ...any) {
	mu.Lock()
	curLevel := level
	out := output
	mu.Unlock()

	if lvl > curLevel {
		return
	}

	var buf byteutil.Buffer

	// Append formatted timestamp and level.
	now := time.Now().Format("02/01/2006 15:04:05.000")
	buf.B = append(buf.B, `timestamp="`...)
	buf.B = append(buf.B, now...)
	buf.B = append(buf.B, `" level=`...)
	buf.B = append(buf.B, lvl.String()...)
	buf.B = append(buf.B, ' ')

	if debug.DEBUG {
		// Include calling function
		// name in debug builds only.
		if frames := stack.Capture(2); len(frames) > 0 {
			buf.B = append(buf.B, "func="...)
			buf.B = append(buf.B, stack.FuncName(frames[0])...)
			buf.B = append(buf.B, ' ')
		}
	}

	if len(fields) > 0 {
		// Append formatted key-value fields.
		kv.Fields(fields).AppendFormat(&buf, false)
		buf.B = append(buf.B, ' ')
	}

	// Append quoted log message.
	buf.B = append(buf.B, "msg="...)
	msg := fmt.Sprintf(format, args...)
	buf.B = strconv.AppendQuote(buf.B, msg)
	buf.B = append(buf.B, '\n')

	_, _ = out.Write(buf.B)
}
