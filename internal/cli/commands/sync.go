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
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"swapfs/internal/diskfs"
	"swapfs/internal/fsutil"
	"swapfs/internal/util"
)

var syncCmd = &cobra.Command{
	Use:   "sync SRC DST",
	Short: "Mirror one store into another",
	Long: `Copy the full contents of the store rooted at SRC into the store rooted
at DST through the filesystem facade. Transient host failures are retried
with backoff; the copy itself is not transactional.`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	src, err := diskfs.New(args[0])
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := diskfs.New(args[1])
	if err != nil {
		return err
	}
	defer dst.Close()

	ctx := cmd.Context()
	err = util.Retry(ctx, func() error {
		return fsutil.CopyAll(ctx, dst, src, "/")
	})
	if err != nil {
		return err
	}
	log.Infof("synced %s -> %s", src.Root(), dst.Root())
	return nil
}
