package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tableadmin/internal/domain"
	"tableadmin/internal/services"
	"tableadmin/internal/state"
	"tableadmin/internal/utils"

	"github.com/spf13/cobra"
)

type bulkOptions struct {
	ids string
	yes bool
}

func (b *bulkOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.ids, "ids", "", "comma separated record ids on the selected page")
	cmd.Flags().BoolVarP(&b.yes, "yes", "y", false, "skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("ids")
}

func newSetStatusCmd(opts *rootOptions) *cobra.Command {
	b := &bulkOptions{}
	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Flip the status of the selected records",
		Long: `Select records of the current page with --ids. When they all share one
status they are moved to the other one; a mixed selection is refused.`,
		Example: "  tablectl set-status --data data.json --ids 3,7 --yes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, opts, b, (*services.BulkService).PrepareStatusChange)
		},
	}
	b.bind(cmd)
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	b := &bulkOptions{}
	cmd := &cobra.Command{
		Use:     "delete",
		Short:   "Delete the selected records one by one",
		Example: "  tablectl delete --backend http://localhost:3000 --status Inactive --ids 4,5,6",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, opts, b, (*services.BulkService).PrepareDelete)
		},
	}
	b.bind(cmd)
	return cmd
}

type prepareFunc func(*services.BulkService, context.Context) (services.PendingAction, error)

func runBulk(cmd *cobra.Command, opts *rootOptions, b *bulkOptions, prepare prepareFunc) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ids, err := utils.SplitIDList(b.ids)
	if err != nil {
		return err
	}
	st, closeFn, err := opts.loadStore(ctx)
	defer closeFn()
	if err != nil {
		return err
	}
	if err := selectIDs(st, ids); err != nil {
		return err
	}

	bulk := services.NewBulkService(st, services.NewTicketSigner(""), cliSession)
	bulk.OnProgress = func(p services.Progress) {
		if p.Running {
			fmt.Fprintln(cmd.ErrOrStderr(), p.Message)
		}
	}
	pending, err := prepare(bulk, ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, pending.Message)
	for _, l := range pending.Lines {
		fmt.Fprintln(out, "  "+l)
	}
	if !b.yes && !askYes(cmd.InOrStdin(), out) {
		_ = bulk.Cancel()
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	report, err := bulk.Confirm(ctx, pending.Ticket)
	if report.Message != "" {
		fmt.Fprintln(out, report.Message)
	}
	var batch domain.BatchError
	if errors.As(err, &batch) {
		for _, f := range batch.Failures {
			fmt.Fprintf(out, "  id %d: %v\n", f.ID, f.Err)
		}
	}
	if err != nil {
		return err
	}
	if pending.Kind == services.ActionStatus {
		fmt.Fprintf(out, "%d records set to %s.\n", len(pending.IDs), pending.Target)
	}
	return nil
}

// selectIDs ticks ids on the loaded page; an id that is not on it is an error.
func selectIDs(st *state.Store, ids []int64) error {
	if len(ids) == 0 {
		return domain.ValidationError{Field: "ids", Msg: "no ids given"}
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return domain.ValidationError{Field: "ids", Msg: fmt.Sprintf("id %d given twice", id)}
		}
		seen[id] = true
		if _, err := st.Toggle(id); err != nil {
			return err
		}
	}
	return nil
}

func askYes(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Proceed? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
