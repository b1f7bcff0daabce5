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
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eslsoft/flashnet/internal/adapter/connectrpc"
	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/usecase/aggregate"
	"github.com/eslsoft/flashnet/internal/usecase/learning"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Study the flashcards of a category you do not know yet",
	Long: `Walk through the unknown flashcards of one category. Type a key and press
enter:

  t  turn the card      s  shuffle
  k  I know it          u  I don't know it
  r  reset the set      q  quit

By default the session runs here and saves progress through the REST store;
--remote-session lets the server host it instead.`,
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

		var driver sessionDriver
		if hosted, _ := cmd.Flags().GetBool("remote-session"); hosted {
			client := connectrpc.NewLearningClient(&http.Client{Timeout: r.cfg.Remote.Timeout}, r.cfg.Remote.BaseURL, r.cfg.Remote.Token)
			driver = &hostedDriver{client: client, categoryID: categoryID}
		} else {
			opts := []learning.Option{
				learning.WithLogger(r.logger),
				learning.WithStoreTimeout(r.cfg.Remote.Timeout),
			}
			if r.cfg.Session.RollbackOnFailure {
				opts = append(opts, learning.WithWritePolicy(learning.WriteRollback))
			}
			driver = &localDriver{engine: learning.NewEngine(r.client.Flashcards(), "", categoryID, opts...)}
		}
		return runLearn(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), driver)
	},
}

func init() {
	rootCmd.AddCommand(learnCmd)
	learnCmd.Flags().String("category", "", "category id")
	learnCmd.Flags().String("category-name", "", "category name")
	learnCmd.Flags().Bool("remote-session", false, "let the server host the session")
}

// sessionDriver is a learning session, local or hosted.
type sessionDriver interface {
	Start(ctx context.Context) (learning.View, error)
	Do(ctx context.Context, action learning.Action) (learning.View, error)
	Close(ctx context.Context) error
}

type localDriver struct {
	engine *learning.Engine
}

func (d *localDriver) Start(ctx context.Context) (learning.View, error) {
	return d.engine.Load(ctx)
}

func (d *localDriver) Do(ctx context.Context, action learning.Action) (learning.View, error) {
	switch action {
	case learning.ActionTurn:
		return d.engine.Turn(ctx)
	case learning.ActionShuffle:
		return d.engine.Shuffle(ctx)
	case learning.ActionMarkKnown:
		return d.engine.MarkKnown(ctx)
	case learning.ActionMarkUnknown:
		return d.engine.MarkUnknown(ctx)
	case learning.ActionResetSet:
		return d.engine.ResetSet(ctx)
	}
	return d.engine.View(), fmt.Errorf("unknown action %q", action)
}

func (d *localDriver) Close(context.Context) error { return nil }

type hostedDriver struct {
	client     *connectrpc.LearningClient
	categoryID string
	sessionID  string
}

func (d *hostedDriver) Start(ctx context.Context) (learning.View, error) {
	resp, err := d.client.StartSession(ctx, d.categoryID)
	if err != nil {
		return learning.View{}, err
	}
	d.sessionID = resp.SessionID
	return resp.View, nil
}

func (d *hostedDriver) Do(ctx context.Context, action learning.Action) (learning.View, error) {
	var (
		resp *connectrpc.SessionView
		err  error
	)
	switch action {
	case learning.ActionTurn:
		resp, err = d.client.Turn(ctx, d.sessionID)
	case learning.ActionShuffle:
		resp, err = d.client.Shuffle(ctx, d.sessionID)
	case learning.ActionMarkKnown:
		resp, err = d.client.MarkKnown(ctx, d.sessionID)
	case learning.ActionMarkUnknown:
		resp, err = d.client.MarkUnknown(ctx, d.sessionID)
	case learning.ActionResetSet:
		resp, err = d.client.ResetSet(ctx, d.sessionID)
	default:
		return learning.View{}, fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		// keep showing the session as the server has it
		if current, getErr := d.client.GetSession(ctx, d.sessionID); getErr == nil {
			return current.View, err
		}
		return learning.View{}, err
	}
	return resp.View, nil
}

func (d *hostedDriver) Close(ctx context.Context) error {
	if d.sessionID == "" {
		return nil
	}
	return d.client.EndSession(ctx, d.sessionID)
}

var learnKeys = map[string]learning.Action{
	"t": learning.ActionTurn,
	"s": learning.ActionShuffle,
	"k": learning.ActionMarkKnown,
	"u": learning.ActionMarkUnknown,
	"r": learning.ActionResetSet,
}

// runLearn reads one key per line from in until q or EOF.
func runLearn(ctx context.Context, in io.Reader, out io.Writer, driver sessionDriver) (err error) {
	view, err := driver.Start(ctx)
	if err != nil {
		return fmt.Errorf("load flashcards: %w", err)
	}
	defer func() {
		if cerr := driver.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()

	renderView(out, view)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		key := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if key == "" {
			continue
		}
		if key == "q" {
			return nil
		}
		action, ok := learnKeys[key]
		if !ok {
			fmt.Fprintf(out, "unknown key %q\n", key)
			continue
		}
		if !view.Can(action) {
			fmt.Fprintf(out, "%s is not available now\n", actionLabel(action))
			continue
		}

		next, err := driver.Do(ctx, action)
		switch {
		case err == nil:
		case entity.IsRetryable(err), errors.Is(err, entity.ErrCardNotFlipped),
			errors.Is(err, entity.ErrSessionComplete), errors.Is(err, entity.ErrSessionNotLoaded):
			fmt.Fprintf(out, "! %v\n", err)
		default:
			return err
		}
		if next.Status == learning.StatusLoaded || next.Status == learning.StatusErrored {
			view = next
		}
		renderView(out, view)
	}
}

func renderView(out io.Writer, v learning.View) {
	fmt.Fprintln(out)
	switch {
	case v.Status == learning.StatusErrored:
		fmt.Fprintf(out, "Could not load flashcards: %s\n", v.Error)
		return
	case v.Status != learning.StatusLoaded:
		fmt.Fprintln(out, "Loading...")
		return
	case v.Empty():
		fmt.Fprintln(out, "This category has no flashcards yet.")
		return
	}

	c := v.Counters
	fmt.Fprintf(out, "%d %s | reviewed %d | known %d | remaining %d\n",
		c.Total, aggregate.Unit(c.Total), c.Reviewed, c.Known, c.Remaining)
	if v.Warning != "" {
		fmt.Fprintf(out, "! %s\n", v.Warning)
	}

	if v.Complete {
		fmt.Fprintln(out, "You have learned all flashcards in this category.")
	} else if v.Card != nil {
		if v.Face == learning.FaceBack {
			fmt.Fprintf(out, "  back:  %s\n", v.Card.Back)
		} else {
			fmt.Fprintf(out, "  front: %s\n", v.Card.Front)
		}
	}

	labels := make([]string, 0, len(v.Actions)+1)
	for _, a := range v.Actions {
		labels = append(labels, actionLabel(a))
	}
	labels = append(labels, "[q]uit")
	fmt.Fprintln(out, strings.Join(labels, "  "))
}

func actionLabel(a learning.Action) string {
	switch a {
	case learning.ActionTurn:
		return "[t]urn"
	case learning.ActionShuffle:
		return "[s]huffle"
	case learning.ActionMarkKnown:
		return "[k] I know"
	case learning.ActionMarkUnknown:
		return "[u] I don't know"
	case learning.ActionResetSet:
		return "[r]eset set"
	}
	return string(a)
}
