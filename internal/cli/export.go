package cli

import (
	"fmt"
	"os"
	"strings"

	"tableadmin/internal/domain"
	"tableadmin/internal/services"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export every record matching the filter to PDF or XLSX",
		Example: "  tablectl export --data data.json --status Active --format xlsx --out active.xlsx",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, closeFn, err := opts.openGateway(cmd.Context())
			defer closeFn()
			if err != nil {
				return err
			}
			c, sort, err := opts.criteria()
			if err != nil {
				return err
			}
			svc := services.ExportService{Gateway: gw}
			var data []byte
			var name string
			switch strings.ToLower(format) {
			case "pdf":
				data, name, err = svc.PDF(cmd.Context(), c, sort)
			case "xlsx":
				data, name, err = svc.XLSX(cmd.Context(), c, sort)
			default:
				return domain.ValidationError{Field: "format", Msg: "must be pdf or xlsx"}
			}
			if err != nil {
				return err
			}
			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, services.DescribeCriteria(c, sort))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "xlsx", "pdf or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default records_<timestamp>.<format>)")
	return cmd
}
