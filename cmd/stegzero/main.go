// Command stegzero hides messages in lossless images and reads them back.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	steg "github.com/yyyoichi/steg_zero"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitNoMessage = 2
	exitCapacity  = 3
	exitCorrupt   = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var batchErr *exitError
	if errors.As(err, &batchErr) {
		// every failure was logged by the batch
		return batchErr.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitCode(err)
}

// exitCode maps an error to the documented process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, steg.ErrCorrupt), errors.Is(err, steg.ErrTruncated):
		return exitCorrupt
	case errors.Is(err, steg.ErrNoMessage):
		return exitNoMessage
	case errors.Is(err, steg.ErrPayloadTooLarge), errors.Is(err, steg.ErrTooSmall):
		return exitCapacity
	}
	return exitFailure
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
