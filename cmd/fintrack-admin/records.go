package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/render"
)

func (a *app) newImportCmd() *cobra.Command {
	var (
		userID int64
		file   string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-import expenses from a CSV or XLSX file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireUser(userID); err != nil {
				return err
			}
			if !importer.Supported(file) {
				return fmt.Errorf("unsupported file %q: expected .csv or .xlsx", file)
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			result, err := importer.NewDecoder(a.cfg.MaxImportBytes).Decode(filepath.Base(file), data)
			if err != nil {
				return err
			}
			for _, skip := range result.Skipped {
				a.logger.Debug("Skipped import row", "line", skip.Line, "reason", skip.Reason)
			}
			if len(result.Rows) == 0 {
				return fmt.Errorf("no valid rows in %s (%d skipped)", file, len(result.Skipped))
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.expenses.ImportExpenses(cmd.Context(), userID, result.Expenses())
			if err != nil {
				return err
			}
			printf(cmd, "Imported %d of %d expenses for user %d (%d skipped)\n",
				n, result.Total, userID, len(result.Skipped))
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Owner user id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV or XLSX file with amount and category columns")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var (
		userID int64
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's full history as pdf, xlsx or csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireUser(userID); err != nil {
				return err
			}
			format = strings.ToLower(format)
			if format != "pdf" && format != "xlsx" && format != "csv" {
				return fmt.Errorf("unknown export format %q: must be pdf, xlsx or csv", format)
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			expenses, err := s.expenses.AllExpenses(cmd.Context(), userID)
			if err != nil {
				return err
			}

			if len(expenses) == 0 {
				return fmt.Errorf("user %d has no expenses to export", userID)
			}
			data, err := a.renderExport(format, userID, expenses)
			if err != nil {
				return err
			}

			if out == "" {
				prefix := "expenses"
				if format == "pdf" {
					prefix = "receipt"
				}
				out = fmt.Sprintf("%s_%d_%s.%s", prefix, userID, a.now().Format("20060102"), format)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			printf(cmd, "Wrote %d expenses to %s\n", len(expenses), out)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Owner user id")
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: pdf, xlsx or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default expenses_<user>_<date>.<format>)")
	return cmd
}

func (a *app) renderExport(format string, userID int64, expenses []core.Expense) ([]byte, error) {
	switch format {
	case "pdf":
		return render.ReceiptPDF(fmt.Sprintf("User %d", userID), expenses, a.now())
	case "xlsx":
		return render.Spreadsheet(expenses)
	default:
		return render.CSV(expenses)
	}
}
