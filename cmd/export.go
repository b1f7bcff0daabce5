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
	"github.com/eslsoft/flashnet/internal/usecase/backup"
)

const (
	exportOutputKey = "backup.export.output"
	exportGzipKey   = "backup.export.gzip"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one user's categories and flashcards as NDJSON",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		userID, _ := cmd.Flags().GetString("user")
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return fmt.Errorf("--user is required")
		}

		outputPath := viper.GetString(exportOutputKey)
		gzipEnabled := viper.GetBool(exportGzipKey)
		if outputPath == "" {
			outputPath = defaultExportFilename(userID, gzipEnabled)
		}
		gzipEnabled = wantsGzip(outputPath, gzipEnabled)

		overrideBatchSize(cmd)
		tools, cleanup, err := app.InitializeTools()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		writer, closers, err := openOutput(cmd, outputPath, gzipEnabled)
		if err != nil {
			return err
		}
		defer runClosers(closers, &err)

		progress := newCLIProgress(cmd.ErrOrStderr(), "exporting")
		summary, err := tools.Backup.Export(ctx, writer, userID, backup.WithProgressReporter(progress))
		if err != nil {
			return fmt.Errorf("export backup: %w", err)
		}

		target := outputPath
		if outputPath == "-" {
			target = "stdout"
		}
		cmd.PrintErrf("exported %d categories and %d flashcards to %s\n", summary.Categories, summary.Flashcards, target)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("user", "", "user id whose data is exported")
	exportCmd.Flags().StringP("output", "o", "", "output file, - for stdout")
	exportCmd.Flags().Bool("gzip", false, "gzip the output")
	exportCmd.Flags().Int("batch-size", 0, "rows per page read from the database (default backup.batch_size)")

	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
}
