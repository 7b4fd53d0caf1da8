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
	"fmt"

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat PATH",
	Short: "Show metadata for a store entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func init() {
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	md, err := store.Lstat(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("type:     %s\n", md.Type)
	fmt.Printf("size:     %d\n", md.Size)
	fmt.Printf("modified: %s\n", md.ModTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("inode:    %d\n", md.Ino)
	return nil
}
