package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/bank"
	"github.com/abhisek/latihan/internal/question"
	"github.com/abhisek/latihan/internal/sheet"
)

var templateCmd = &cobra.Command{
	Use:   "template <file.xlsx|file.csv>",
	Short: "Write the spreadsheet import template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sheet.WriteTemplate(args[0]); err != nil {
			return fmt.Errorf("write template: %w", err)
		}
		fmt.Printf("Template written to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import questions from a spreadsheet or JSON bank file",
	Long: `Import questions into the bank.

Spreadsheets (.xlsx, .csv) follow the template layout. With --policy abort
(the default) one malformed row fails the whole import; with --policy skip
malformed rows are reported and the rest are kept. JSON files are bank
exports and are appended as they are.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx|file.csv|file.json>",
	Short: "Export the bank to a spreadsheet or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	importCmd.Flags().String("policy", "abort", "Malformed row policy: abort or skip")

	exportCmd.Flags().StringP("token", "t", "", "Only export questions of this quiz token")
	exportCmd.Flags().Bool("include-deleted", false, "Include soft-deleted questions (JSON only)")
}

func runImport(cmd *cobra.Command, args []string) error {
	src := args[0]
	s, path, err := loadBank(cmd)
	if err != nil {
		return err
	}

	if isJSON(src) {
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()
		records, err := bank.ReadJSON(f)
		if err != nil {
			return fmt.Errorf("import %s: %w", src, err)
		}
		if _, err := s.Append(records...); err != nil {
			return fmt.Errorf("import %s: %w", src, err)
		}
		app.metrics.ObserveImport(len(records), 0, countFlagged(records))
		fmt.Printf("Imported %d questions from %s\n", len(records), src)
		return saveBank(s, path)
	}

	policyVal, _ := cmd.Flags().GetString("policy")
	policy, err := sheet.ParsePolicy(policyVal)
	if err != nil {
		return err
	}
	res, err := sheet.ReadFile(src, sheet.ImportOptions{Policy: policy, Logger: app.log})
	if err != nil {
		return err
	}
	if _, err := s.Append(res.Records...); err != nil {
		return fmt.Errorf("import %s: %w", src, err)
	}
	app.metrics.ObserveImport(len(res.Records), len(res.Skipped), res.Flagged)
	app.log.Info("sheet imported",
		zap.String("source", src),
		zap.Int("imported", len(res.Records)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("excluded", res.Excluded),
		zap.Int("flagged", res.Flagged))

	fmt.Printf("Imported %d questions from %s\n", len(res.Records), src)
	for _, re := range res.Skipped {
		fmt.Printf("  skipped %v\n", re)
	}
	if res.Excluded > 0 {
		fmt.Printf("  %d rows without question text ignored\n", res.Excluded)
	}
	if res.Flagged > 0 {
		fmt.Printf("  %d questions need repair (see `latihan list --repair`)\n", res.Flagged)
	}
	if res.HasSettings {
		fmt.Printf("  sheet settings: %d min, shuffle questions %v, shuffle options %v\n",
			res.Settings.Duration, res.Settings.ShuffleQuestions, res.Settings.ShuffleOptions)
	}
	return saveBank(s, path)
}

func runExport(cmd *cobra.Command, args []string) error {
	dst := args[0]
	token, _ := cmd.Flags().GetString("token")
	withDeleted, _ := cmd.Flags().GetBool("include-deleted")

	s, _, err := loadBank(cmd)
	if err != nil {
		return err
	}
	snap := s.Snapshot()

	var records []question.Record
	switch {
	case token != "":
		records = snap.ByToken(token)
	case withDeleted && isJSON(dst):
		records = snap.All()
	default:
		records = snap.Active()
	}

	if isJSON(dst) {
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		if err := bank.WriteJSON(f, records); err != nil {
			f.Close()
			return fmt.Errorf("export %s: %w", dst, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	} else if err := sheet.WriteFile(dst, records, app.cfg.Exercise); err != nil {
		return fmt.Errorf("export %s: %w", dst, err)
	}

	fmt.Printf("Exported %d questions to %s\n", len(records), dst)
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func countFlagged(records []question.Record) int {
	n := 0
	for _, r := range records {
		if len(r.Issues) > 0 {
			n++
		}
	}
	return n
}
