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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eslsoft/flashnet/internal/app"
	"github.com/eslsoft/flashnet/internal/infrastructure/database"
	"github.com/eslsoft/flashnet/internal/usecase"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Long: `Apply the flashnet schema to the configured database. With --seed, also
load a deck of tab separated "front<TAB>back" lines into a category of the
given user. Note: the sqlite3 driver needs a cgo build.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		seed, _ := cmd.Flags().GetString("seed")
		userID, _ := cmd.Flags().GetString("user")
		category, _ := cmd.Flags().GetString("category-name")
		if seed != "" && (strings.TrimSpace(userID) == "" || strings.TrimSpace(category) == "") {
			return fmt.Errorf("--seed needs --user and --category-name")
		}

		tools, cleanup, err := app.InitializeTools()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		if err := database.Migrate(ctx, tools.Driver); err != nil {
			return err
		}
		cmd.PrintErrln("schema up to date")

		if seed == "" {
			return nil
		}
		file, err := os.Open(filepath.Clean(seed))
		if err != nil {
			return fmt.Errorf("open seed deck: %w", err)
		}
		defer file.Close()

		cards, err := parseDeck(file)
		if err != nil {
			return err
		}
		created, err := seedDeck(ctx, tools.Flashcards, userID, category, cards)
		if err != nil {
			return err
		}
		cmd.PrintErrf("seeded %d flashcards into %q\n", created, category)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("seed", "", "tab separated deck to load after migrating")
	migrateCmd.Flags().String("user", "", "owner of the seeded flashcards")
	migrateCmd.Flags().String("category-name", "", "category receiving the seeded flashcards, created when missing")
}

type deckCard struct {
	Front, Back string
}

// parseDeck reads "front<TAB>back" lines. Blank lines and lines starting with
// # are skipped.
func parseDeck(r io.Reader) ([]deckCard, error) {
	var cards []deckCard
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		front, back, ok := strings.Cut(text, "\t")
		front, back = strings.TrimSpace(front), strings.TrimSpace(back)
		if !ok || front == "" || back == "" {
			return nil, fmt.Errorf("deck line %d: want front<TAB>back", line)
		}
		cards = append(cards, deckCard{Front: front, Back: back})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return cards, nil
}

func seedDeck(ctx context.Context, flashcards usecase.FlashcardUsecase, userID, category string, cards []deckCard) (int, error) {
	for i, card := range cards {
		_, err := flashcards.CreateFlashcard(ctx, userID, usecase.CreateFlashcardInput{
			Front:        card.Front,
			Back:         card.Back,
			CategoryName: category,
		})
		if err != nil {
			return i, fmt.Errorf("seed %q: %w", card.Front, err)
		}
	}
	return len(cards), nil
}
