package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"shellmate/internal/adapter/tui/uxerror"
	"shellmate/internal/usecase"
)

// runAsk generates one command for the query given on the command line,
// asks for confirmation on stdin and runs it.
func runAsk(args []string) error {
	flags := parseFlags(args)
	query := strings.Join(flags.Rest, " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("usage: shellmate ask [flags] <query...>")
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, cleanup, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return askOnce(ctx, a.session, query, os.Stdin, os.Stdout, flags.Yes)
}

// askOnce drives one submit/confirm round trip on s. The command runs only
// when the user answers y (or assumeYes is set).
func askOnce(ctx context.Context, s *usecase.Session, query string, in io.Reader, out io.Writer, assumeYes bool) error {
	s.SetQuery(query)
	task, err := s.Submit()
	if err != nil {
		return err
	}
	if task == nil {
		fmt.Fprintln(out, s.Snapshot().Status)
		return nil
	}
	if err := await(ctx, s, task); err != nil {
		return err
	}

	snap := s.Snapshot()
	if snap.LastErr != nil {
		fmt.Fprintln(out, uxerror.Humanize(snap.LastErr).Render())
		return snap.LastErr
	}
	if snap.Pending == "" {
		fmt.Fprintln(out, snap.Status)
		return nil
	}

	fmt.Fprintf(out, "Generated Command:\n\n  %s\n\n", strings.ReplaceAll(snap.Pending, "\n", "\n  "))
	if !assumeYes {
		fmt.Fprint(out, "Execute? [y/N] ")
		answer, _ := bufio.NewReader(in).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	task, err = s.Confirm()
	if err != nil {
		return err
	}
	if task == nil {
		fmt.Fprintln(out, s.Snapshot().Status)
		return nil
	}
	if err := await(ctx, s, task); err != nil {
		return err
	}
	fmt.Fprintln(out, s.Snapshot().Status)
	return nil
}

// await runs task in the background and applies its completion, or gives up
// when ctx ends.
func await(ctx context.Context, s *usecase.Session, task usecase.Task) error {
	select {
	case c := <-usecase.Dispatch(ctx, task):
		s.Complete(c)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
