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

package stacktrace_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"code.superseriousbusiness.org/stacktrace"
	"code.superseriousbusiness.org/stacktrace/internal/config"
	"code.superseriousbusiness.org/stacktrace/internal/stack"
	"github.com/stretchr/testify/suite"
)

// newDomainError is the motivating wrapper pattern: a factory that
// constructs the error and hides itself from the resulting trace.
//
//go:noinline
func newDomainError() (*stacktrace.Error, error) {
	return stacktrace.New("something broke",
		stacktrace.WithName("DomainError"),
		stacktrace.FramesAbove(newDomainError),
	)
}

// doWork is the throw site calling the factory.
//
//go:noinline
func doWork() (*stacktrace.Error, error) { return newDomainError() }

// deepNew recurses depth times before constructing an error.
//
//go:noinline
func deepNew(depth int, opts ...stacktrace.Option) (*stacktrace.Error, error) {
	if depth > 0 {
		return deepNew(depth-1, opts...)
	}
	return stacktrace.New("deep", opts...)
}

// indexOf returns the index of the first frame whose
// function name contains name, or -1 when absent.
func indexOf(s stack.Snapshot, name string) int {
	for i, frame := range s {
		if strings.Contains(frame.Function, name) {
			return i
		}
	}
	return -1
}

type errorTestSuite struct {
	suite.Suite
}

func (suite *errorTestSuite) SetupTest() {
	config.Reset()
}

func (suite *errorTestSuite) TearDownTest() {
	config.Reset()
}

func (suite *errorTestSuite) TestBasicFields() {
	cause := errors.New("the cause")

	e, err := stacktrace.Wrap(cause, "operation failed",
		stacktrace.WithName("OpError"),
	)
	suite.NoError(err)
	suite.NotNil(e)

	suite.Equal("OpError", e.Name())
	suite.Equal("operation failed", e.Message())
	suite.Equal("OpError: operation failed", e.Error())
	suite.Same(cause, e.Unwrap())
	suite.True(errors.Is(e, cause))
}

func (suite *errorTestSuite) TestDefaultName() {
	e, err := stacktrace.New("plain")
	suite.NoError(err)
	suite.Equal(stacktrace.DefaultName, e.Name())
	suite.Equal("Error: plain", e.Error())
}

func (suite *errorTestSuite) TestNewf() {
	e, err := stacktrace.Newf("failed after %d attempts", 3)
	suite.NoError(err)
	suite.Equal("failed after 3 attempts", e.Message())
}

func (suite *errorTestSuite) TestConstructorFrameExcluded() {
	e, err := stacktrace.New("here")
	suite.NoError(err)

	trace := e.Trace()
	suite.Require().NotEmpty(trace)

	// Index 0 is this test method, never
	// the constructor or its plumbing.
	suite.Contains(trace[0].Function, "TestConstructorFrameExcluded")
	suite.Equal(-1, indexOf(trace, "stacktrace.New"))
	suite.Equal(-1, indexOf(trace, "newError"))
	suite.Equal(-1, indexOf(trace, "CapturePCs"))
}

func (suite *errorTestSuite) TestFramesAboveHidesWrapper() {
	e, err := doWork()
	suite.Require().NoError(err)

	trace := e.Trace()
	suite.Require().NotEmpty(trace)

	// The factory frame and anything above it are gone;
	// the throw site is the most recent visible frame.
	suite.Contains(trace[0].Function, "doWork")
	suite.Equal(-1, indexOf(trace, "newDomainError"))

	// This test method is still visible further down.
	suite.NotEqual(-1, indexOf(trace, "TestFramesAboveHidesWrapper"))
}

func (suite *errorTestSuite) TestFramesAboveAbsentIsNoop() {
	// otherFunc never appears on this stack.
	otherFunc := func() {}

	e, err := stacktrace.New("unmatched", stacktrace.FramesAbove(otherFunc))
	suite.NoError(err)

	trace := e.Trace()
	suite.Require().NotEmpty(trace)
	suite.Contains(trace[0].Function, "TestFramesAboveAbsentIsNoop")
}

func (suite *errorTestSuite) TestRejectsNonCallableFilter() {
	for _, value := range []any{42, "nope", struct{}{}, nil} {
		e, err := stacktrace.New("bad", stacktrace.FramesAbove(value))
		suite.Error(err, "value %#v", value)
		suite.Nil(e, "value %#v", value)
		suite.Contains(err.Error(), "invalid frames-above value")
	}
}

func (suite *errorTestSuite) TestLimitAppliedAfterFiltering() {
	config.SetTraceLimit(2)

	e, err := deepNew(6, stacktrace.FramesAbove(deepNew))
	suite.Require().NoError(err)

	trace := e.Trace()

	// FramesAbove(deepNew) cuts at the most recent deepNew
	// activation, so the 2-frame budget is spent entirely on
	// frames below it: the deeper recursive activations.
	suite.Require().Len(trace, 2)
	suite.Contains(trace[0].Function, "deepNew")
	suite.Contains(trace[1].Function, "deepNew")
}

func (suite *errorTestSuite) TestLimitPinnedAtConstruction() {
	config.SetTraceLimit(3)

	e, err := deepNew(10)
	suite.Require().NoError(err)

	// Raising the global limit after construction
	// must not retroactively grow this trace.
	config.SetTraceLimit(100)
	suite.Len(e.Trace(), 3)
}

func (suite *errorTestSuite) TestUnboundedLimit() {
	const depth = 100

	config.SetTraceLimit(config.UnboundedTraceLimit)

	e, err := deepNew(depth)
	suite.Require().NoError(err)

	var n int
	for _, frame := range e.Trace() {
		if strings.Contains(frame.Function, "deepNew") {
			n++
		}
	}
	suite.GreaterOrEqual(n, depth)
}

func (suite *errorTestSuite) TestTraceIdempotent() {
	e, err := deepNew(4)
	suite.Require().NoError(err)

	first := e.Trace()
	second := e.Trace()

	// Materialized exactly once: repeated access
	// observes the very same frame sequence.
	suite.Require().Len(second, len(first))
	for i := range first {
		suite.Equal(first[i].Function, second[i].Function)
		suite.Equal(first[i].Line, second[i].Line)
	}
}

func (suite *errorTestSuite) TestStackRendering() {
	e, err := doWork()
	suite.Require().NoError(err)

	str := e.Stack()
	suite.True(strings.HasPrefix(str, "DomainError: something broke\n"))
	suite.Contains(str, "stacktrace_test.doWork()")
	suite.Contains(str, "\n\t")
	suite.NotContains(str, "newDomainError")
}

func (suite *errorTestSuite) TestMarshalJSON() {
	cause := errors.New("root cause")

	e, err := stacktrace.Wrap(cause, "wrapped", stacktrace.WithName("WrapError"))
	suite.Require().NoError(err)

	b, err := json.Marshal(e)
	suite.Require().NoError(err)

	var out struct {
		Name    string `json:"name"`
		Message string `json:"message"`
		Cause   string `json:"cause"`
		Trace   []struct {
			Func string `json:"func"`
			File string `json:"file"`
			Line int    `json:"line"`
		} `json:"trace"`
	}
	suite.Require().NoError(json.Unmarshal(b, &out))

	suite.Equal("WrapError", out.Name)
	suite.Equal("wrapped", out.Message)
	suite.Equal("root cause", out.Cause)
	suite.Require().NotEmpty(out.Trace)
	suite.Contains(out.Trace[0].Func, "TestMarshalJSON")
}

func TestErrorTestSuite(t *testing.T) {
	suite.Run(t, &errorTestSuite{})
}
