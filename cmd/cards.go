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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/eslsoft/flashnet/internal/adapter/restclient"
	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List the flashcards of a category",
	Example: `  flashnet cards --category-name Spanish
  flashnet cards --category 0b6c... --filter 'is_known == false && front.startsWith("el")'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRemote()
		if err != nil {
			return err
		}
		categoryID, err := categoryFromFlags(ctx, cmd, r.client)
		if err != nil {
			return err
		}
		filter, _ := cmd.Flags().GetString("filter")
		order, _ := cmd.Flags().GetString("order-by")

		cards, total, err := r.client.Flashcards().List(ctx, &repository.ListFlashcardQuery{
			CategoryID:  categoryID,
			FilterOrder: repository.FilterOrder{Filter: filter, OrderBy: order},
		})
		if err != nil {
			return err
		}
		if total == 0 {
			cmd.Println("No flashcards match.")
			return nil
		}
		renderCards(cmd.OutOrStdout(), cards)
		return nil
	},
}

var cardAddCmd = &cobra.Command{
	Use:   "add FRONT BACK",
	Short: "Add a flashcard; --category-name creates the category when missing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRemote()
		if err != nil {
			return err
		}
		store := r.client.Flashcards()

		var created *entity.Flashcard
		if name, _ := cmd.Flags().GetString("category-name"); strings.TrimSpace(name) != "" {
			created, err = store.CreateInCategory(ctx, args[0], args[1], name)
		} else {
			id, _ := cmd.Flags().GetString("category")
			created, err = store.Create(ctx, &entity.Flashcard{Front: args[0], Back: args[1], CategoryID: id})
		}
		if err != nil {
			return err
		}
		cmd.Printf("added %s\n", created.ID)
		return nil
	},
}

var cardEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change the front or back of a flashcard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRemote()
		if err != nil {
			return err
		}
		var patch entity.FlashcardPatch
		if cmd.Flags().Changed("front") {
			front, _ := cmd.Flags().GetString("front")
			patch.Front = &front
		}
		if cmd.Flags().Changed("back") {
			back, _ := cmd.Flags().GetString("back")
			patch.Back = &back
		}
		updated, err := r.client.Flashcards().Update(cmd.Context(), "", args[0], patch)
		if err != nil {
			return err
		}
		renderCards(cmd.OutOrStdout(), []entity.Flashcard{*updated})
		return nil
	},
}

var cardDeleteCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a flashcard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRemote()
		if err != nil {
			return err
		}
		if err := r.client.Flashcards().Delete(cmd.Context(), "", args[0]); err != nil {
			return err
		}
		cmd.Println("deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cardsCmd)
	cardsCmd.AddCommand(cardAddCmd, cardEditCmd, cardDeleteCmd)

	cardsCmd.PersistentFlags().String("category", "", "category id")
	cardsCmd.PersistentFlags().String("category-name", "", "category name")
	cardsCmd.Flags().String("filter", "", "CEL filter, e.g. is_known == false")
	cardsCmd.Flags().String("order-by", "created_at asc", "order, e.g. front asc")
	cardEditCmd.Flags().String("front", "", "new front text")
	cardEditCmd.Flags().String("back", "", "new back text")
}

// categoryFromFlags resolves --category or --category-name to an id.
func categoryFromFlags(ctx context.Context, cmd *cobra.Command, client *restclient.Client) (string, error) {
	if id, _ := cmd.Flags().GetString("category"); strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id), nil
	}
	name, _ := cmd.Flags().GetString("category-name")
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("pass --category or --category-name")
	}
	found, err := client.Categories().FindByName(ctx, "", name)
	if err != nil {
		return "", err
	}
	if found == nil {
		return "", fmt.Errorf("%w: %q", entity.ErrCategoryNotFound, name)
	}
	return found.ID, nil
}

func renderCards(out io.Writer, cards []entity.Flashcard) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Front", "Back", "Known", "Reviewed", "ID"})
	for _, c := range cards {
		table.Append([]string{c.Front, c.Back, yesNo(c.IsKnown), yesNo(c.IsReviewed), c.ID})
	}
	table.Render()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
