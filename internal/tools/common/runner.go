package common

import (
	"context"
	"os"
	"time"

	"github.com/sandeepkv93/product-media-catalog/internal/config"
	"github.com/sandeepkv93/product-media-catalog/internal/observability"
	"github.com/sandeepkv93/product-media-catalog/internal/tools/ui"
)

const defaultTimeout = 2 * time.Minute

// Options are the flags every catalogctl command group shares.
type Options struct {
	EnvFile string
	Timeout time.Duration
	CI      bool
}

type Action func(ctx context.Context) ([]string, error)

// Run executes action for tool/command. Interactive runs render through the
// terminal UI; CI runs print a JSON result to stdout instead.
func Run(opts *Options, tool, command string, action Action) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	title := tool + " " + command
	start := time.Now()

	var (
		details []string
		err     error
	)
	if opts.CI {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		details, err = action(ctx)
		cancel()
		_ = writeCIResult(os.Stdout, newCIResult(tool, command, time.Since(start), details, err))
	} else {
		details, err = ui.Run(title, timeout, action)
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ctx := context.Background()
	observability.RecordToolCommandRun(ctx, tool, command, outcome)
	observability.RecordToolCommandDuration(ctx, tool, command, outcome, time.Since(start))
	return err
}

// LoadEnv loads the env file named by the shared flags before config.Load
// reads the environment.
func LoadEnv(opts *Options) error {
	return config.LoadEnvFile(opts.EnvFile)
}
