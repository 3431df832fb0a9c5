package cli

import (
	"fmt"
	"strconv"

	"tableadmin/internal/domain/models"
	"tableadmin/internal/services"

	"github.com/spf13/cobra"
)

type formFlags struct {
	form services.RecordForm
	kind string
}

func (f *formFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.kind, "kind", "item", "record kind (item, transfer)")
	fl.StringVar(&f.form.Amount, "amount", "", "amount, e.g. $1,234.56")
	fl.StringVar((*string)(&f.form.Status), "record-status", "", "record status (Active, Inactive)")
	fl.StringVar(&f.form.LastName, "last-name", "", "item last name")
	fl.StringVar(&f.form.FirstName, "first-name", "", "item first name")
	fl.StringVar(&f.form.Email, "email", "", "item email")
	fl.StringVar(&f.form.Website, "website", "", "item website")
	fl.StringVar(&f.form.ReferenceNo, "ref", "", "transfer reference number")
	fl.StringVar(&f.form.From, "from", "", "transfer source account")
	fl.StringVar(&f.form.To, "to", "", "transfer target account")
	fl.StringVar(&f.form.MessageType, "message-type", "", "transfer message type")
}

// overlay copies the flags the user actually set onto base.
func (f *formFlags) overlay(cmd *cobra.Command, base services.RecordForm) services.RecordForm {
	changed := cmd.Flags().Changed
	set := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	set("amount", &base.Amount, f.form.Amount)
	if changed("record-status") {
		base.Status = f.form.Status
	}
	if changed("kind") {
		base.Kind = models.Kind(f.kind)
	}
	set("last-name", &base.LastName, f.form.LastName)
	set("first-name", &base.FirstName, f.form.FirstName)
	set("email", &base.Email, f.form.Email)
	set("website", &base.Website, f.form.Website)
	set("ref", &base.ReferenceNo, f.form.ReferenceNo)
	set("from", &base.From, f.form.From)
	set("to", &base.To, f.form.To)
	set("message-type", &base.MessageType, f.form.MessageType)
	return base
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	f := &formFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record",
		Example: `  tablectl add --data data.json --last-name Diaz --email diaz@example.com --amount 1200
  tablectl add --data data.json --kind transfer --ref TX-9 --from ACC-1 --to ACC-2 --amount 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := opts.loadStore(cmd.Context())
			defer closeFn()
			if err != nil {
				return err
			}
			svc := services.RecordService{Store: st}
			blank, err := svc.Blank(f.kind)
			if err != nil {
				return err
			}
			rec, err := svc.Create(cmd.Context(), f.overlay(cmd, blank))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", rec.ID, rec.Label())
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	f := &formFlags{}
	cmd := &cobra.Command{
		Use:     "edit ID",
		Short:   "Edit a record of the selected page",
		Example: "  tablectl edit 7 --data data.json --amount 99 --record-status Inactive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			st, closeFn, err := opts.loadStore(cmd.Context())
			defer closeFn()
			if err != nil {
				return err
			}
			svc := services.RecordService{Store: st}
			current, err := svc.EditForm(id)
			if err != nil {
				return err
			}
			rec, err := svc.Update(cmd.Context(), id, f.overlay(cmd, current))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d %s\n", rec.ID, rec.Label())
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}
