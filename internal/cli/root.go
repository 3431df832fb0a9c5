// Package cli implements tablectl, the terminal front end of the records
// console.
package cli

import (
	"context"
	"time"

	"tableadmin/internal/app"
	"tableadmin/internal/config"
	"tableadmin/internal/domain"
	"tableadmin/internal/gateway"
	"tableadmin/internal/services"
	"tableadmin/internal/state"
	"tableadmin/internal/utils"

	"github.com/spf13/cobra"
)

// cliSession identifies confirmation tickets issued by the CLI.
const cliSession = "tablectl"

type rootOptions struct {
	backend string
	data    string
	config  string
	timeout time.Duration

	status string
	min    string
	max    string
	sort   string
	order  string
	page   int
}

// NewRootCmd builds the tablectl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tablectl",
		Short: "Browse and bulk-edit records from the terminal",
		Long: `tablectl lists, filters, sorts and pages records and runs the same
bulk status and delete workflows as the web console.

Records come from a REST backend (--backend), a JSON data file (--data), or
whatever the config file and environment select.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.ConfigureLogger("text", cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.backend, "backend", "", "REST backend base URL")
	pf.StringVar(&opts.data, "data", "", "JSON data file to use instead of a backend")
	pf.StringVar(&opts.config, "config", "", "YAML config file")
	pf.DurationVar(&opts.timeout, "timeout", 10*time.Second, "backend request timeout")
	pf.StringVar(&opts.status, "status", "", "filter by status (Active, Inactive)")
	pf.StringVar(&opts.min, "min", "", "minimum amount, e.g. $1,000.00")
	pf.StringVar(&opts.max, "max", "", "maximum amount")
	pf.StringVar(&opts.sort, "sort", "", "sort field, e.g. amount or lastUpdate")
	pf.StringVar(&opts.order, "order", "", "sort order (asc, desc)")
	pf.IntVar(&opts.page, "page", 1, "page number")

	root.AddCommand(
		newListCmd(opts),
		newSummaryCmd(opts),
		newSetStatusCmd(opts),
		newDeleteCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// openGateway prefers the explicit flags over the config file.
func (o *rootOptions) openGateway(ctx context.Context) (gateway.Gateway, func(), error) {
	switch {
	case o.backend != "":
		return gateway.NewClient(o.backend, o.timeout), func() {}, nil
	case o.data != "":
		store, err := gateway.OpenMemoryStore(o.data)
		return store, func() {}, err
	}
	env, err := config.LoadFile(o.config)
	if err != nil {
		return nil, func() {}, err
	}
	return app.OpenGateway(ctx, env)
}

func (o *rootOptions) criteria() (domain.Criteria, domain.Sort, error) {
	c, err := services.ParseCriteria(o.status, o.min, o.max)
	if err != nil {
		return c, domain.Sort{}, err
	}
	if o.sort == "" && o.order == "" {
		return c, domain.DefaultSort(), nil
	}
	s, err := domain.Sort{Field: o.sort, Order: o.order}.Normalize()
	return c, s, err
}

// loadStore opens the gateway and loads the page the filter flags describe.
func (o *rootOptions) loadStore(ctx context.Context) (*state.Store, func(), error) {
	gw, closeFn, err := o.openGateway(ctx)
	if err != nil {
		return nil, closeFn, err
	}
	c, sort, err := o.criteria()
	if err != nil {
		return nil, closeFn, err
	}
	st := state.New(gw, domain.DefaultPageSize)
	if err := st.SetSort(ctx, sort); err != nil {
		return nil, closeFn, err
	}
	if err := st.ApplyFilter(ctx, c); err != nil {
		return nil, closeFn, err
	}
	if o.page > 1 {
		if err := st.GoToPage(ctx, o.page); err != nil {
			return nil, closeFn, err
		}
	}
	return st, closeFn, nil
}
