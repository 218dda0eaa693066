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

// stackdump captures and prints an example filtered stack trace,
// demonstrating the frames-above truncation and the ambient limit.
package main

import (
	"fmt"
	"os"

	"code.superseriousbusiness.org/stacktrace"
	"code.superseriousbusiness.org/stacktrace/internal/config"
	"code.superseriousbusiness.org/stacktrace/internal/log"
	"github.com/spf13/cobra"
)

func main() {
	var asJSON bool

	cmd := &cobra.Command{
		Use:           "stackdump",
		Short:         "capture and print an example filtered stack trace",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(asJSON)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "render the trace as JSON")

	if err := cmd.Execute(); err != nil {
		log.Errorf("error running stackdump: %v", err)
		os.Exit(1)
	}
}

// newExampleError constructs the error, hiding
// itself from the trace via FramesAbove.
//
//go:noinline
func newExampleError() (*stacktrace.Error, error) {
	return stacktrace.New("example error",
		stacktrace.WithName("ExampleError"),
		stacktrace.FramesAbove(newExampleError),
	)
}

//go:noinline
func doWork() (*stacktrace.Error, error) { return newExampleError() }

func run(asJSON bool) error {
	log.WithField("limit", config.TraceLimit()).
		Infof("capturing example trace")

	e, err := doWork()
	if err != nil {
		return err
	}

	if asJSON {
		b, err := e.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", b)
		return nil
	}

	fmt.Print(e.Stack())
	return nil
}
