package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/username/mgscheck/src/response"
)

// newCheckCmd checks saved gateway responses of services that have no
// request flow of their own.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a saved watch list or home widget response against the backend.",
	}

	var file string
	load := func() (*response.Response, error) {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return response.Parse(raw)
	}

	watchlist := &cobra.Command{
		Use:   "watchlist",
		Short: "Check watch list positions and instruments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := load()
			if err != nil {
				return err
			}
			s := newStack(cmd.Context(), setup())
			if err := s.gateway.Login(cmd.Context()); err != nil {
				return err
			}
			return report(cmd, s.verify.CheckWatchlist(cmd.Context(), resp))
		},
	}
	homeWidget := &cobra.Command{
		Use:   "homewidget",
		Short: "Check home widget instruments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := load()
			if err != nil {
				return err
			}
			s := newStack(cmd.Context(), setup())
			return report(cmd, s.verify.CheckHomeWidget(cmd.Context(), resp))
		},
	}

	for _, c := range []*cobra.Command{watchlist, homeWidget} {
		c.Flags().StringVarP(&file, "file", "f", "", "saved gateway response (JSON)")
		_ = c.MarkFlagRequired("file")
		cmd.AddCommand(c)
	}
	return cmd
}

func report(cmd *cobra.Command, err error) error {
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), err)
		return errRunFailed
	}
	fmt.Fprintln(cmd.OutOrStdout(), "passed")
	return nil
}
