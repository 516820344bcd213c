package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	invoiceclient "github.com/jrsteele09/go-invoice-client"
)

func newRootCommand(app *invoiceclient.App) *cobra.Command {
	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Manage invoices from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			displayAppName("invoicectl")
			_ = cmd.Help()
		},
	}

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newInvoicesCommand(app),
	)

	return root
}

func displayAppName(name string) {
	figure.NewFigure(name, "cybermedium", true).Print()
	fmt.Println()
}
