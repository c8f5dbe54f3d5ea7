package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coldb/joinengine/colpage"
	"github.com/coldb/joinengine/planexec"
)

// newRootCmd builds the joinengine CLI's command tree: a bare root plus
// the run subcommand, the only one wired up so far.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "joinengine",
		Short: "Columnar join engine execution core",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var verbose bool
	var numWorkers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the built-in demo plan and print its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			cfg := planexec.DefaultEngineConfig()
			if numWorkers > 0 {
				cfg.NumWorkers = numWorkers
			}

			catalog := buildFixtureCatalog()
			plan := buildDemoPlan()
			engine := planexec.New(catalog, cfg, log)

			out, err := engine.Execute(context.Background(), plan)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "columns=%d rows=%d\n", len(out.Columns), out.NumRows())
			for i, col := range out.Columns {
				fmt.Fprintf(cmd.OutOrStdout(), "  column %d: type=%s pages=%d\n", i, col.Type, len(col.Pages))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().IntVar(&numWorkers, "workers", 0, "worker goroutine count (0 = GOMAXPROCS)")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildDemoPlan joins the fixture catalog's customers table (table 0)
// against orders (table 1) on customers.id = orders.customer_id,
// building the hash table from customers and probing with orders, and
// projects (customer name, order amount) as output.
func buildDemoPlan() *planexec.Plan {
	scanCustomers := &planexec.ScanNode{
		BaseTableID: 0,
		OutputAttrs: []planexec.Attr{
			{SourceCol: 0, Type: colpage.I32},
			{SourceCol: 1, Type: colpage.VARCHAR},
		},
	}
	scanOrders := &planexec.ScanNode{
		BaseTableID: 1,
		OutputAttrs: []planexec.Attr{
			{SourceCol: 0, Type: colpage.I32},
			{SourceCol: 1, Type: colpage.I32},
		},
	}
	join := &planexec.JoinNode{
		BuildLeft: true,
		Left:      0,
		Right:     1,
		LeftAttr:  0,
		RightAttr: 0,
		OutputAttrs: []planexec.Attr{
			{SourceCol: 1, Type: colpage.VARCHAR}, // customers.name
			{SourceCol: 3, Type: colpage.I32},     // orders.amount_cents
		},
	}
	return &planexec.Plan{
		Nodes: []planexec.Node{scanCustomers, scanOrders, join},
		Root:  2,
	}
}
