// Command process-due runs a single batch pass over due recurring task
// definitions and exits. It is meant for an external time-based invoker.
//
// Exit codes: 0 on success, 1 when the pass could not run or any definition
// failed, 2 when another pass holds the run lease.
//
// With -hash-token it instead prints the argon2id hash of the token read from
// standard input, suitable for CLEANOPS_TRIGGER_TOKEN_HASH.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/bootstrap"
	"github.com/example/cleanops-scheduler/internal/config"
	"github.com/example/cleanops-scheduler/internal/trigger"
)

const (
	exitOK = iota
	exitFailure
	exitBusy
)

func main() {
	hashToken := flag.Bool("hash-token", false, "read a trigger token from stdin and print its hash")
	flag.Parse()

	if *hashToken {
		os.Exit(printTokenHash(os.Stdin, os.Stdout, os.Stderr))
	}
	os.Exit(processDue())
}

func printTokenHash(in io.Reader, out, errOut io.Writer) int {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		fmt.Fprintln(errOut, "read token:", err)
		return exitFailure
	}
	token := strings.TrimSpace(line)
	if token == "" {
		fmt.Fprintln(errOut, "token must not be empty")
		return exitFailure
	}
	encoded, err := application.HashTriggerToken(token, application.DefaultArgon2idParams)
	if err != nil {
		fmt.Fprintln(errOut, "hash token:", err)
		return exitFailure
	}
	fmt.Fprintln(out, encoded)
	return exitOK
}

func processDue() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load configuration:", err)
		return exitFailure
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		return exitFailure
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	services := bootstrap.NewServices(store, cfg, logger)
	result, err := bootstrap.NewRunner(services.Recurring, store, cfg, logger).RunOnce(ctx)
	switch {
	case errors.Is(err, trigger.ErrRunInProgress):
		return exitBusy
	case err != nil:
		return exitFailure
	case result.HasFailures():
		return exitFailure
	}
	return exitOK
}
