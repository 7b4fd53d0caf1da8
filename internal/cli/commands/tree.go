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
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"swapfs/internal/common"
	"swapfs/internal/fsutil"
	"swapfs/internal/vfs"
)

var flagTreeIgnore string

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "List the store subtree at a path",
	Long: `Walk the store through the filesystem facade and print one line per entry.

Examples:
  swapfs tree
  swapfs tree /src
  swapfs tree --ignore-file /.gitignore`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&flagTreeIgnore, "ignore-file", "", "store path of a gitignore-style exclusion file")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	root := "/"
	if len(args) > 0 {
		root = args[0]
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	var filter *fsutil.IgnoreFilter
	if flagTreeIgnore != "" {
		filter, err = fsutil.LoadIgnore(ctx, store, flagTreeIgnore)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
	}

	base := common.NormalizePath(root)
	return fsutil.WalkFiltered(ctx, store, root, filter, func(path string, entry vfs.DirEntry) error {
		rel := strings.Trim(strings.TrimPrefix(path, base), "/")
		indent := strings.Repeat("  ", strings.Count(rel, "/"))
		switch entry.Type {
		case vfs.FileTypeDirectory:
			fmt.Printf("%s%s/\n", indent, entry.Name)
		case vfs.FileTypeSymlink:
			fmt.Printf("%s%s@\n", indent, entry.Name)
		default:
			fmt.Printf("%s%s (%d bytes)\n", indent, entry.Name, entry.Size)
		}
		return nil
	})
}
