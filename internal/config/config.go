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

// Package config provides process-wide runtime configuration,
// in particular the ambient stack trace length limit.
package config

import (
	"strings"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// TraceLimitKey is the config key / flag name holding the
	// maximum number of call frames retained in a produced trace.
	TraceLimitKey = "stack-trace-limit"

	// UnboundedTraceLimit disables
	// trace length bounding entirely.
	UnboundedTraceLimit = -1

	// default number of retained frames.
	defaultTraceLimit = 10

	// environment variable prefix,
	// e.g. STACKTRACE_STACK_TRACE_LIMIT.
	envPrefix = "stacktrace"
)

var (
	// mu protects the global
	// viper state below.
	mu sync.RWMutex

	// global viper instance
	// holding process config.
	global *viper.Viper
)

func init() { Reset() }

// Reset reinstalls configuration defaults and environment
// bindings, dropping any explicitly set values.
func Reset() {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(TraceLimitKey, defaultTraceLimit)

	mu.Lock()
	global = v
	mu.Unlock()
}

// RegisterFlags attaches configuration flags to the given
// flag set and binds them into the process configuration.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int(TraceLimitKey, defaultTraceLimit,
		"maximum frames retained per stack trace (negative for unbounded)")

	mu.Lock()
	defer mu.Unlock()
	if err := global.BindPFlags(flags); err != nil {
		panic(err)
	}
}

// TraceLimit returns the ambient stack trace limit. Callers
// snapshot this once per capture operation: the limit in effect
// at construction time governs that trace for its lifetime.
func TraceLimit() int {
	mu.RLock()
	defer mu.RUnlock()
	return cast.ToInt(global.Get(TraceLimitKey))
}

// SetTraceLimit sets the ambient stack trace limit. It only
// affects traces captured after the call, never already
// constructed ones.
func SetTraceLimit(limit int) {
	mu.Lock()
	defer mu.Unlock()
	global.Set(TraceLimitKey, limit)
}
