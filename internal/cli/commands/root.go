// Copyright 2024 SwapFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands implements the swapfs CLI: a thin shell over the disk
// backend for inspecting and manipulating a store from the terminal. The
// library under internal/ is the product; these commands are plumbing.
package commands

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"swapfs/internal/diskfs"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagRoot    string
	flagVerbose int
)

// SetVersion sets the version info for --version flag
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

var rootCmd = &cobra.Command{
	Use:   "swapfs",
	Short: "Inspect and manipulate a swapfs store",
	Long:  `Operate on a directory through the swapfs filesystem facade: list, read, write, move, and mirror store contents.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case flagVerbose >= 2:
			log.SetLevel(log.TraceLevel)
		case flagVerbose == 1:
			log.SetLevel(log.DebugLevel)
		default:
			log.SetLevel(log.WarnLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("swapfs version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "store root directory")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (-v debug, -vv trace)")
}

// openStore opens the disk backend rooted at --root.
func openStore() (*diskfs.DiskFS, error) {
	store, err := diskfs.New(flagRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", flagRoot, err)
	}
	return store, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
