package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/generate"
	"github.com/abhisek/latihan/internal/question"
	"github.com/abhisek/latihan/internal/sheet"
	"github.com/abhisek/latihan/internal/ui/theme"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a question by hand",
	Long: `Add a question by hand.

The answer key uses the spreadsheet notation: a letter for Pilihan Ganda
("B"), letters for Pilihan Jamak ("A, C"), one B/S or S/T per statement
for the statement types ("B, S, B") and plain text otherwise.`,
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions in the bank",
	RunE:  runList,
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a question in place",
	Long: `Change a question in place.

--order and --token update only those fields. --type converts the question
and resets its answer key. --text, --option, --key and --explanation
replace the matching fields; --option replaces the whole option list and
--key uses the spreadsheet notation of the (possibly new) type.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var explainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Write an explanation for a question with the LLM",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Soft-delete a question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadBank(cmd)
		if err != nil {
			return err
		}
		if _, err := s.SoftDelete(args[0]); err != nil {
			return fmt.Errorf("delete %s: %w", args[0], err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return saveBank(s, path)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a soft-deleted question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadBank(cmd)
		if err != nil {
			return err
		}
		if _, err := s.Restore(args[0]); err != nil {
			return fmt.Errorf("restore %s: %w", args[0], err)
		}
		fmt.Printf("Restored %s\n", args[0])
		return saveBank(s, path)
	},
}

func init() {
	d := question.NewDraft()
	f := addCmd.Flags()
	f.String("type", string(d.Type), "Question type (label or pg, mcma, bs, sts, isian, uraian)")
	f.String("text", "", "Question text (required)")
	f.StringArrayP("option", "o", nil, "Option or statement (repeatable, up to 5)")
	f.StringP("answer", "a", "", "Answer key in spreadsheet notation")
	f.String("level", d.Level, "Level: L1, L2 or L3")
	f.String("subject", d.Subject, "Subject")
	f.String("phase", d.Phase, "Curriculum phase")
	f.String("material", "", "Topic")
	f.String("explanation", "", "Explanation shown after checking")
	f.StringP("token", "t", d.QuizToken, "Quiz token")
	f.String("image", "", "Image URL or data URI")
	f.String("true-label", "", "Caption for true statements")
	f.String("false-label", "", "Caption for false statements")
	_ = addCmd.MarkFlagRequired("text")

	listCmd.Flags().StringP("token", "t", "", "Only list questions of this quiz token")
	listCmd.Flags().Bool("deleted", false, "Include soft-deleted questions")
	listCmd.Flags().Bool("repair", false, "Only list questions that need repair")

	editCmd.Flags().Int("order", 0, "New order within the token")
	editCmd.Flags().String("token", "", "New quiz token")
	editCmd.Flags().String("type", "", "New type; resets the answer key")
	editCmd.Flags().String("text", "", "New question text")
	editCmd.Flags().StringArrayP("option", "o", nil, "Replacement option or statement (repeatable, up to 5)")
	editCmd.Flags().StringP("key", "k", "", "New answer key in spreadsheet notation")
	editCmd.Flags().String("explanation", "", "New explanation")

	explainCmd.Flags().Bool("force", false, "Replace an existing explanation")
}

func runAdd(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	typeVal, _ := f.GetString("type")
	t, err := parseTypeFlag(typeVal)
	if err != nil {
		return err
	}

	d := question.NewDraft()
	d.Type = t
	d.Text, _ = f.GetString("text")
	d.Options, _ = f.GetStringArray("option")
	d.Level, _ = f.GetString("level")
	d.Subject, _ = f.GetString("subject")
	d.Phase, _ = f.GetString("phase")
	d.Material, _ = f.GetString("material")
	d.Explanation, _ = f.GetString("explanation")
	d.QuizToken, _ = f.GetString("token")
	d.Image, _ = f.GetString("image")

	trueLabel, _ := f.GetString("true-label")
	falseLabel, _ := f.GetString("false-label")
	if trueLabel != "" || falseLabel != "" {
		d.TFLabels = &question.TFLabels{True: trueLabel, False: falseLabel}
	}

	n := len(question.TrimOptions(d.Options))
	d.CorrectAnswer = answer.Default(t, n)
	if key, _ := f.GetString("answer"); key != "" {
		v, err := sheet.DecodeKey(t, key, n)
		if err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		d.CorrectAnswer = v
	}

	rec, err := question.NewManual(d, time.Now())
	if err != nil {
		return err
	}

	s, path, err := loadBank(cmd)
	if err != nil {
		return err
	}
	if _, err := s.Append(rec); err != nil {
		return err
	}
	fmt.Printf("Added %s to %s\n", rec.ID, rec.QuizToken)
	return saveBank(s, path)
}

func runList(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("token")
	withDeleted, _ := cmd.Flags().GetBool("deleted")
	onlyRepair, _ := cmd.Flags().GetBool("repair")

	s, _, err := loadBank(cmd)
	if err != nil {
		return err
	}
	snap := s.Snapshot()

	var records []question.Record
	switch {
	case onlyRepair:
		records = snap.NeedingRepair()
	case withDeleted:
		records = snap.All()
	default:
		records = snap.Active()
	}
	if token != "" {
		want := question.NormalizeToken(token)
		kept := records[:0]
		for _, r := range records {
			if r.QuizToken == want {
				kept = append(kept, r)
			}
		}
		records = kept
	}

	if len(records) == 0 {
		fmt.Println("No questions found.")
		return nil
	}

	fmt.Println(theme.Heading.Render(fmt.Sprintf("%-36s  %-10s  %4s  %-22s  %-3s  %-40s  %s",
		"ID", "Token", "#", "Type", "Lv", "Question", "Key")))
	fmt.Println(strings.Repeat("─", 130))

	for _, r := range records {
		line := fmt.Sprintf("%-36s  %-10s  %4d  %-22s  %-3s  %-40s  %s",
			truncate(r.ID, 36),
			truncate(r.QuizToken, 10),
			r.Order,
			truncate(string(r.Type), 22),
			r.Level,
			truncate(oneLine(r.Text), 40),
			sheet.EncodeKey(r.Type, r.CorrectAnswer),
		)
		switch {
		case r.IsDeleted:
			line = theme.Deleted.Render(line)
		case r.NeedsRepair():
			line = theme.Flagged.Render(line + "  !")
		}
		fmt.Println(line)
	}

	fmt.Println(strings.Repeat("─", 130))
	fmt.Printf("%d questions (bank version %d)\n", len(records), snap.Version())
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id := args[0]
	s, path, err := loadBank(cmd)
	if err != nil {
		return err
	}
	rec, ok := s.Snapshot().Get(id)
	if !ok {
		return fmt.Errorf("question %s not found", id)
	}

	f := cmd.Flags()
	if f.Changed("order") || f.Changed("token") {
		order, token := rec.Order, rec.QuizToken
		if f.Changed("order") {
			order, _ = f.GetInt("order")
		}
		if f.Changed("token") {
			token, _ = f.GetString("token")
		}
		if _, err := s.QuickUpdate(id, order, token); err != nil {
			return err
		}
	}
	if f.Changed("type") {
		typeVal, _ := f.GetString("type")
		t, err := parseTypeFlag(typeVal)
		if err != nil {
			return err
		}
		if _, err := s.ChangeType(id, t); err != nil {
			return err
		}
	}
	if f.Changed("text") || f.Changed("option") || f.Changed("key") || f.Changed("explanation") {
		rec, _ = s.Snapshot().Get(id)
		updated, err := applyEdits(f, rec)
		if err != nil {
			return err
		}
		if _, err := s.Replace(updated); err != nil {
			return fmt.Errorf("edit %s: %w", id, err)
		}
	}

	rec, _ = s.Snapshot().Get(id)
	fmt.Printf("%s: order %d, token %s, type %s, key %q\n",
		rec.ID, rec.Order, rec.QuizToken, rec.Type, sheet.EncodeKey(rec.Type, rec.CorrectAnswer))
	return saveBank(s, path)
}

// applyEdits copies the content flags onto rec.
func applyEdits(f *pflag.FlagSet, rec question.Record) (question.Record, error) {
	if f.Changed("text") {
		text, _ := f.GetString("text")
		if strings.TrimSpace(text) == "" {
			return rec, errors.New("question text cannot be empty")
		}
		rec.Text = strings.TrimSpace(text)
	}
	if f.Changed("option") {
		opts, _ := f.GetStringArray("option")
		opts = question.TrimOptions(opts)
		if len(opts) > question.MaxOptions {
			return rec, fmt.Errorf("at most %d options, got %d", question.MaxOptions, len(opts))
		}
		rec.Options = opts
	}
	if f.Changed("key") {
		key, _ := f.GetString("key")
		v, err := sheet.DecodeKey(rec.Type, key, len(rec.Options))
		if err != nil {
			return rec, fmt.Errorf("answer key: %w", err)
		}
		rec.CorrectAnswer = v
		rec.Issues = nil
	}
	if f.Changed("explanation") {
		rec.Explanation, _ = f.GetString("explanation")
	}
	return rec, nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	id := args[0]
	force, _ := cmd.Flags().GetBool("force")

	s, path, err := loadBank(cmd)
	if err != nil {
		return err
	}
	rec, ok := s.Snapshot().Get(id)
	if !ok {
		return fmt.Errorf("question %s not found", id)
	}
	if rec.Explanation != "" && !force {
		fmt.Println(theme.Card.Render(rec.Explanation))
		return nil
	}

	ctx, cancel := llmContext(cmd)
	defer cancel()
	provider, closeStore, err := newProvider(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	text, err := generate.NewAssistant(provider, generateConfig()).Explanation(ctx, rec)
	if err != nil {
		return fmt.Errorf("explain %s: %w", id, err)
	}
	if text != generate.NoExplanation {
		updated := rec.Clone()
		updated.Explanation = text
		if _, err := s.Replace(updated); err != nil {
			return err
		}
	}
	fmt.Println(theme.Card.Render(text))
	if text == generate.NoExplanation {
		return nil
	}
	return saveBank(s, path)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
