package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/username/mgscheck/src/models"
)

func parseServices(args []string) ([]models.Service, error) {
	svcs := make([]models.Service, 0, len(args))
	for _, a := range args {
		svc, err := models.ParseService(a)
		if err != nil {
			return nil, err
		}
		svcs = append(svcs, svc)
	}
	return svcs, nil
}

func newRunCmd() *cobra.Command {
	var (
		concurrency int
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "run [SERVICE...]",
		Short: "Verify gateway services once and print the run report.",
		Long: `run verifies the named services (all of them when none is given) and prints
the run report. Services are accountList, accountOverview, completeView, all,
individual and lots. The exit status is non-zero when any flow fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := parseServices(args)
			if err != nil {
				return err
			}
			cfg := setup()
			s := newStack(cmd.Context(), cfg)

			report, err := s.runner(cfg, concurrency).Run(cmd.Context(), svcs...)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), report.Summary())
			}
			if !report.Passed() {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "flows run in parallel (default RUN_CONCURRENCY)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print the report as JSON")
	return cmd
}
