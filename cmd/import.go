/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/flashnet/internal/app"
	"github.com/eslsoft/flashnet/internal/infrastructure/database"
	"github.com/eslsoft/flashnet/internal/usecase/backup"
)

const (
	importInputKey = "backup.import.input"
	importGzipKey  = "backup.import.gzip"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an NDJSON export into a user's account",
	Long: `Import reads a file written by "flashnet export". Categories are matched by
name and reused, flashcards keep their known and reviewed flags, and cards
already present in the target category are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		userID, _ := cmd.Flags().GetString("user")
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return fmt.Errorf("--user is required")
		}
		inputPath := viper.GetString(importInputKey)
		if inputPath == "" {
			return fmt.Errorf("--input is required, use - for stdin")
		}
		gzipEnabled := wantsGzip(inputPath, viper.GetBool(importGzipKey))

		overrideBatchSize(cmd)
		tools, cleanup, err := app.InitializeTools()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		if err := database.Migrate(ctx, tools.Driver); err != nil {
			return err
		}

		reader, closers, err := openInput(cmd, inputPath, gzipEnabled)
		if err != nil {
			return err
		}
		defer runClosers(closers, &err)

		progress := newCLIProgress(cmd.ErrOrStderr(), "importing")
		summary, err := tools.Backup.Import(ctx, reader, userID, backup.WithProgressReporter(progress))
		if err != nil {
			return fmt.Errorf("import backup: %w", err)
		}

		cmd.PrintErrf("imported %d new categories (%d reused) and %d flashcards (%d already present)\n",
			summary.Categories, summary.ReusedCategories, summary.Flashcards, summary.SkippedFlashcards)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("user", "", "user id receiving the data")
	importCmd.Flags().StringP("input", "i", "", "backup file, - for stdin")
	importCmd.Flags().Bool("gzip", false, "input is gzip compressed")
	importCmd.Flags().Int("batch-size", 0, "rows per page when checking existing flashcards")

	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
}
