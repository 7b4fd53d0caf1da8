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

package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir PATH",
	Short: "Create a directory and its ancestors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.CreateDirAll(cmd.Context(), args[0])
	},
}

var writeCmd = &cobra.Command{
	Use:   "write PATH [CONTENT]",
	Short: "Write a file in the store",
	Long:  `Write CONTENT to PATH, creating or truncating the file. With no CONTENT, stdin is written.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		if len(args) == 2 {
			data = []byte(args[1])
		} else {
			var err error
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.WriteFile(cmd.Context(), args[0], data)
	},
}

var flagRmRecursive bool

var rmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Remove a file, or a subtree with --recursive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if flagRmRecursive {
			return store.RemoveDirAll(cmd.Context(), args[0])
		}
		return store.RemoveFile(cmd.Context(), args[0])
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv OLD NEW",
	Short: "Rename a store entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Rename(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&flagRmRecursive, "recursive", "r", false, "remove directories and their contents")
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
}
