// Package cli wires the configuration, clients and verifier into the
// mgscheck commands.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/username/mgscheck/src/config"
	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/services"
	"github.com/username/mgscheck/src/verify"
)

// errRunFailed makes the process exit non-zero without printing a usage.
var errRunFailed = errors.New("run failed")

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mgscheck",
		Short: "Conformance checks for the mobile gateway aggregation services.",
		Long: `mgscheck requests the mobile gateway services, checks the structure and tags
of every response and compares reference values with records derived from
the backend services.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newServeCmd(), newUUIDCmd(), newTokenCmd(), newCheckCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and initializes the logger once per process.
func setup() *config.AppConfig {
	if config.Cfg == nil {
		config.LoadConfig()
		logger.InitLogger(config.Cfg.LogLevel)
	}
	return config.Cfg
}

// stack is everything a run needs.
type stack struct {
	gateway *services.GatewayClient
	backend *services.BackendClient
	verify  *verify.Verifier
	reports services.ReportService
}

func newStack(ctx context.Context, cfg *config.AppConfig) *stack {
	gw := services.NewGatewayClient(services.GatewayOptionsFromConfig(cfg))
	be := services.NewBackendClient(ctx, services.BackendOptionsFromConfig(cfg))
	return &stack{
		gateway: gw,
		backend: be,
		verify:  verify.NewVerifier(gw, be, verify.OptionsFromConfig(cfg)),
		reports: services.NewReportService(cfg.ReportCacheTTL),
	}
}

func (s *stack) runner(cfg *config.AppConfig, concurrency int) *verify.Runner {
	if concurrency < 1 {
		concurrency = cfg.RunConcurrency
	}
	return verify.NewRunner(s.verify, s.reports, services.NewReportNotifier(), concurrency)
}
