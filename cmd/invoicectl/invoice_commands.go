package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	invoiceclient "github.com/jrsteele09/go-invoice-client"
	"github.com/jrsteele09/go-invoice-client/invoices"
)

const dateFlagLayout = "2006-01-02"

func newInvoicesCommand(app *invoiceclient.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoices",
		Aliases: []string{"invoice"},
		Short:   "List, inspect and manage invoices",
	}

	cmd.AddCommand(
		newInvoicesListCommand(app),
		newInvoicesGetCommand(app),
		newInvoicesCreateCommand(app),
		newInvoicesUpdateCommand(app),
		newInvoicesDeleteCommand(app),
		newInvoicesDownloadCommand(app),
		newInvoicesAttachCommand(app),
	)

	return cmd
}

func newInvoicesListCommand(app *invoiceclient.App) *cobra.Command {
	var (
		status  string
		search  string
		sortBy  string
		order   string
		from    string
		to      string
		asJSON  bool
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices with optional filtering and sorting",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := invoices.Query{
				Status: invoices.Status(status),
				Search: search,
				SortBy: invoices.SortField(sortBy),
				Order:  invoices.SortOrder(order),
			}
			if from != "" {
				parsed, err := time.Parse(dateFlagLayout, from)
				if err != nil {
					return fmt.Errorf("invalid --from date %q, want YYYY-MM-DD", from)
				}
				query.StartDate = parsed
			}
			if to != "" {
				parsed, err := time.Parse(dateFlagLayout, to)
				if err != nil {
					return fmt.Errorf("invalid --to date %q, want YYYY-MM-DD", to)
				}
				query.EndDate = parsed
			}

			matched, err := app.Invoices.Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			if summary {
				return printSummary(cmd, invoices.Summarize(matched))
			}
			if asJSON {
				return printJSON(cmd, matched)
			}
			printInvoiceTable(cmd, matched)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (paid, unpaid, pending)")
	cmd.Flags().StringVar(&search, "search", "", "match client name or invoice number")
	cmd.Flags().StringVar(&sortBy, "sort", "date", "sort field (date, amount)")
	cmd.Flags().StringVar(&order, "order", "desc", "sort order (asc, desc)")
	cmd.Flags().StringVar(&from, "from", "", "earliest invoice date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest invoice date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	cmd.Flags().BoolVar(&summary, "summary", false, "print dashboard totals instead of rows")

	return cmd
}

func newInvoicesGetCommand(app *invoiceclient.App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoice, err := app.Invoices.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, invoice)
		},
	}
}

func newInvoicesCreateCommand(app *invoiceclient.App) *cobra.Command {
	invoice := invoices.Invoice{
		Date:   time.Now().Format(dateFlagLayout),
		Status: invoices.StatusPending,
	}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := app.Invoices.Create(cmd.Context(), invoice)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created invoice %s (%s)\n", created.InvoiceNumber, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&invoice.InvoiceNumber, "number", "", "invoice number")
	cmd.Flags().StringVar(&invoice.ClientName, "client", "", "client name")
	cmd.Flags().StringVar(&invoice.Date, "date", invoice.Date, "invoice date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&invoice.Amount, "amount", 0, "invoice amount")
	cmd.Flags().StringVar((*string)(&invoice.Status), "status", string(invoice.Status), "status (paid, unpaid, pending)")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}

func newInvoicesUpdateCommand(app *invoiceclient.App) *cobra.Command {
	var updated invoices.Invoice

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an existing invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := app.Invoices.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			next := *current
			if cmd.Flags().Changed("number") {
				next.InvoiceNumber = updated.InvoiceNumber
			}
			if cmd.Flags().Changed("client") {
				next.ClientName = updated.ClientName
			}
			if cmd.Flags().Changed("date") {
				next.Date = updated.Date
			}
			if cmd.Flags().Changed("amount") {
				next.Amount = updated.Amount
			}
			if cmd.Flags().Changed("status") {
				next.Status = updated.Status
			}

			if _, err := app.Invoices.Update(cmd.Context(), args[0], next); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated invoice %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&updated.InvoiceNumber, "number", "", "invoice number")
	cmd.Flags().StringVar(&updated.ClientName, "client", "", "client name")
	cmd.Flags().StringVar(&updated.Date, "date", "", "invoice date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&updated.Amount, "amount", 0, "invoice amount")
	cmd.Flags().StringVar((*string)(&updated.Status), "status", "", "status (paid, unpaid, pending)")

	return cmd
}

func newInvoicesDeleteCommand(app *invoiceclient.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Invoices.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted invoice %s\n", args[0])
			return nil
		},
	}
}

func newInvoicesDownloadCommand(app *invoiceclient.App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the PDF rendering of an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := app.Invoices.DownloadPDF(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("invoice-%s.pdf", args[0])
			}
			if err := os.WriteFile(out, content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes)\n", out, len(content))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (default invoice-<id>.pdf)")

	return cmd
}

func newInvoicesAttachCommand(app *invoiceclient.App) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <file>",
		Short: "Upload a file attachment for an invoice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			if err := app.Invoices.UploadAttachment(cmd.Context(), args[0], args[1], content); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attached %s to invoice %s\n", args[1], args[0])
			return nil
		},
	}
}

func printInvoiceTable(cmd *cobra.Command, list []invoices.Invoice) {
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no invoices found")
		return
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "NUMBER\tCLIENT\tDATE\tAMOUNT\tSTATUS")
	for _, invoice := range list {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%.2f\t%s\n",
			invoice.InvoiceNumber, invoice.ClientName, invoice.Date, invoice.Amount, invoice.Status)
	}
	_ = writer.Flush()
}

func printSummary(cmd *cobra.Command, summary invoices.Summary) error {
	fmt.Fprintf(cmd.OutOrStdout(), "total invoices: %d\n", summary.TotalInvoices)
	fmt.Fprintf(cmd.OutOrStdout(), "paid invoices:  %d\n", summary.PaidInvoices)
	fmt.Fprintf(cmd.OutOrStdout(), "pending amount: %.2f\n", summary.PendingAmount)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
