package cli

import (
	"tableadmin/internal/render"

	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show one page of records",
		Example: `  tablectl list --data data.json
  tablectl list --backend http://localhost:3000 --status Active --min 1000 --sort amount --order desc --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := opts.loadStore(cmd.Context())
			defer closeFn()
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), render.Build(st.View()))
			return nil
		},
	}
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals over all records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, closeFn, err := opts.openGateway(cmd.Context())
			defer closeFn()
			if err != nil {
				return err
			}
			sum, err := gw.GetSummary(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), render.Summary(sum))
			return nil
		},
	}
}
