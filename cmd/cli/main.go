package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thereceipt/receipt-templater/internal/config"
	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/i18n"
	"github.com/thereceipt/receipt-templater/internal/logging"
)

const defaultServerURL = "http://localhost:8080"

// Version is set during build via ldflags
var Version = "dev"

type globalOptions struct {
	configPath string
	verbosity  int
	serverURL  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var e *errors.Error
		if errors.As(err, &e) && e.UserMessage != "" {
			fmt.Fprintln(os.Stderr, e.UserMessage)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "receiptctl",
		Short:         "Preview, validate and print receipt templates",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(opts.verbosity, os.Stderr, "")
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file")
	root.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "increase verbosity (-v, -vv, -vvv)")
	root.PersistentFlags().StringVarP(&opts.serverURL, "server", "s", defaultServerURL, "server URL for remote commands")

	root.AddCommand(
		newPreviewCmd(opts),
		newValidateCmd(opts),
		newAnalyzeCmd(opts),
		newPrintCmd(opts),
		newJobsCmd(opts),
		newRemoteCmd(opts),
		newMonitorCmd(opts),
		newPortsCmd(),
	)
	return root
}

// loadConfig loads the configuration and applies its language.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	i18n.SetLanguage(cfg.Render.Language)
	return cfg, nil
}
