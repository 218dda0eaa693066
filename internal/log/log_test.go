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

package log_test

import (
	"bytes"
	"os"
	"testing"

	"code.superseriousbusiness.org/stacktrace/internal/log"
	"github.com/stretchr/testify/assert"
)

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	log.WithField("attempt", 2).Infof("retrying %s", "capture")

	out := buf.String()
	assert.Contains(t, out, `level=INFO`)
	assert.Contains(t, out, "attempt")
	assert.Contains(t, out, `msg="retrying capture"`)
	assert.Contains(t, out, "timestamp=")
}

func TestLogLevelSuppression(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetLevel(log.ERROR)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.INFO)
	})

	log.Infof("should not appear")
	assert.Empty(t, buf.String())

	log.Errorf("should appear")
	assert.Contains(t, buf.String(), "level=ERROR")
}
