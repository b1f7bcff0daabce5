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
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/internal/usecase/aggregate"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat"},
	Short:   "List your categories with their progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRemote()
		if err != nil {
			return err
		}

		categories, _, err := r.client.Categories().List(ctx, &repository.ListCategoryQuery{
			FilterOrder: repository.FilterOrder{OrderBy: "name asc"},
		})
		if err != nil {
			return err
		}
		cards, _, err := r.client.Flashcards().List(ctx, &repository.ListFlashcardQuery{})
		if err != nil {
			return err
		}

		summaries := aggregate.Overview(categories, cards)
		if len(summaries) == 0 {
			cmd.Println("No categories yet. Add a flashcard with: flashnet cards add --category-name NAME FRONT BACK")
			return nil
		}
		renderOverview(cmd.OutOrStdout(), summaries)
		return nil
	},
}

var categoryAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRemote()
		if err != nil {
			return err
		}
		created, err := r.client.Categories().Create(cmd.Context(), &entity.Category{Name: args[0]})
		if err != nil {
			return err
		}
		cmd.Printf("created %q (%s)\n", created.Name, created.ID)
		return nil
	},
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRemote()
		if err != nil {
			return err
		}
		renamed, err := r.client.Categories().Rename(cmd.Context(), "", args[0], args[1])
		if err != nil {
			return err
		}
		cmd.Printf("renamed to %q\n", renamed.Name)
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a category together with its flashcards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRemote()
		if err != nil {
			return err
		}
		if err := r.client.Categories().Delete(cmd.Context(), "", args[0]); err != nil {
			return err
		}
		cmd.Println("deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.AddCommand(categoryAddCmd, categoryRenameCmd, categoryDeleteCmd)
}

func renderOverview(out io.Writer, summaries []aggregate.CategorySummary) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Name", "Items", "Known", "ID"})
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})
	for _, s := range summaries {
		table.Append([]string{
			s.Category.Name,
			fmt.Sprintf("%d %s", s.Total, s.Unit),
			strconv.Itoa(s.Percentage) + "%",
			s.Category.ID,
		})
	}
	table.Render()
}
