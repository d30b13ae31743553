package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/bank"
	"github.com/abhisek/latihan/internal/generate"
	"github.com/abhisek/latihan/internal/question"
	"github.com/abhisek/latihan/internal/ui/theme"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate questions with the configured LLM provider",
	Long: `Generate a batch of questions and append it to the bank.

Composition is given per type and per level:

  latihan generate --subject Biologi --phase "Fase E" --material Fotosintesis \
    --count pg=5 --count bs=2 --level L2=5 --level L3=2 --token BIO1

Type keys are the full labels ("Pilihan Ganda") or the short forms
pg, mcma, bs, sts, isian, uraian.`,
	RunE: runGenerate,
}

var materialCmd = &cobra.Command{
	Use:   "material <token>",
	Short: "Generate teaching material for a quiz token",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaterial,
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Ask the LLM to fill in missing options of flagged questions",
	RunE:  runRepair,
}

func init() {
	f := generateCmd.Flags()
	f.String("subject", question.DefaultSubject, "Subject")
	f.String("phase", question.DefaultPhase, "Curriculum phase")
	f.String("material", "", "Topic the questions cover (required)")
	f.StringArray("count", nil, "Questions per type, TYPE=N (repeatable)")
	f.StringArray("level", nil, "Questions per level, L1|L2|L3=N (repeatable)")
	f.StringP("token", "t", question.DefaultToken, "Quiz token for the batch")
	f.String("reference", "", "Text file with reference material")
	f.String("image", "", "Reference image (png, jpeg, webp, heic)")
	f.String("instructions", "", "Special instructions for the generator")
	f.Int("max-tokens", generate.DefaultConfig().MaxTokens, "Output token budget for the batch")
	f.Bool("with-material", false, "Also generate teaching material for the token")
	_ = generateCmd.MarkFlagRequired("material")
	_ = generateCmd.MarkFlagRequired("count")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req, err := generateRequest(cmd)
	if err != nil {
		return err
	}
	withMaterial, _ := cmd.Flags().GetBool("with-material")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")

	s, path, err := loadBank(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := llmContext(cmd)
	defer cancel()
	provider, closeStore, err := newProvider(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	cfg := generateConfig()
	cfg.MaxTokens = maxTokens

	fmt.Printf("Generating %d questions for %s...\n", req.Total(), question.NormalizeToken(req.QuizToken))
	batch, err := generate.New(provider, cfg).Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	app.metrics.ObserveGenerated(batch.Flagged)
	if _, err := s.Append(batch.Records...); err != nil {
		return fmt.Errorf("append batch: %w", err)
	}

	fmt.Printf("Added %d questions", len(batch.Records))
	if batch.Skipped > 0 {
		fmt.Printf(" (%d unusable items dropped)", batch.Skipped)
	}
	fmt.Println()
	if batch.Flagged > 0 {
		fmt.Println(theme.Flagged.Render(fmt.Sprintf("%d questions need repair; run `latihan repair`", batch.Flagged)))
	}

	if withMaterial && len(batch.Records) > 0 {
		token := batch.Records[0].QuizToken
		if err := attachMaterial(ctx, generate.NewAssistant(provider, cfg), s, token); err != nil {
			// The batch is still worth keeping.
			fmt.Fprintf(os.Stderr, "teaching material: %v\n", err)
		}
	}
	return saveBank(s, path)
}

func runMaterial(cmd *cobra.Command, args []string) error {
	s, path, err := loadBank(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := llmContext(cmd)
	defer cancel()
	provider, closeStore, err := newProvider(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := attachMaterial(ctx, generate.NewAssistant(provider, generateConfig()), s, args[0]); err != nil {
		return err
	}
	fmt.Println(theme.Card.Render(s.Snapshot().TeachingMaterial(args[0])))
	return saveBank(s, path)
}

func runRepair(cmd *cobra.Command, args []string) error {
	s, path, err := loadBank(cmd)
	if err != nil {
		return err
	}
	pending := len(s.Snapshot().NeedingRepair())
	if pending == 0 {
		fmt.Println("No questions need repair.")
		return nil
	}

	ctx, cancel := llmContext(cmd)
	defer cancel()
	provider, closeStore, err := newProvider(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Printf("Repairing %d questions...\n", pending)
	report, runErr := generate.NewRepairer(provider, generateConfig()).RepairAll(ctx, s)
	for _, id := range report.Repaired {
		fmt.Printf("  %s %s\n", theme.Correct.Render("✓"), id)
	}
	for _, f := range report.Failed {
		fmt.Printf("  %s %s: %v\n", theme.Incorrect.Render("✗"), f.ID, f.Err)
	}

	// Keep whatever was repaired before a cancellation.
	if err := saveBank(s, path); err != nil {
		return err
	}
	return runErr
}

func attachMaterial(ctx context.Context, a *generate.Assistant, s *bank.Session, token string) error {
	records := s.Snapshot().ByToken(token)
	if len(records) == 0 {
		return fmt.Errorf("no questions for token %q", question.NormalizeToken(token))
	}
	fmt.Printf("Writing teaching material for %s...\n", question.NormalizeToken(token))
	md, err := a.TeachingMaterial(ctx, records)
	if err != nil {
		return err
	}
	n, err := s.AttachMaterial(token, md)
	if err != nil {
		return err
	}
	fmt.Printf("Material attached to %d questions\n", n)
	return nil
}

func generateConfig() generate.Config {
	cfg := generate.DefaultConfig()
	cfg.Logger = app.log
	return cfg
}

func generateRequest(cmd *cobra.Command) (generate.Request, error) {
	f := cmd.Flags()
	subject, _ := f.GetString("subject")
	phase, _ := f.GetString("phase")
	material, _ := f.GetString("material")
	counts, _ := f.GetStringArray("count")
	levels, _ := f.GetStringArray("level")
	token, _ := f.GetString("token")
	refPath, _ := f.GetString("reference")
	imgPath, _ := f.GetString("image")
	instructions, _ := f.GetString("instructions")

	req := generate.Request{
		Subject:             subject,
		Phase:               phase,
		Material:            material,
		TypeCounts:          map[answer.Type]int{},
		LevelCounts:         map[string]int{},
		QuizToken:           token,
		SpecialInstructions: instructions,
	}
	for _, c := range counts {
		key, n, err := splitCount(c)
		if err != nil {
			return req, err
		}
		t, err := parseTypeFlag(key)
		if err != nil {
			return req, err
		}
		req.TypeCounts[t] += n
	}
	for _, c := range levels {
		key, n, err := splitCount(c)
		if err != nil {
			return req, err
		}
		req.LevelCounts[strings.ToUpper(key)] += n
	}

	if refPath != "" {
		b, err := os.ReadFile(refPath)
		if err != nil {
			return req, fmt.Errorf("read reference: %w", err)
		}
		req.ReferenceText = string(b)
	}
	if imgPath != "" {
		b, err := os.ReadFile(imgPath)
		if err != nil {
			return req, fmt.Errorf("read image: %w", err)
		}
		req.ReferenceImage = &generate.Image{MIMEType: imageMIME(imgPath), Data: b}
	}
	return req, req.Validate()
}

func splitCount(s string) (string, int, error) {
	key, val, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, fmt.Errorf("invalid count %q: want KEY=N", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return "", 0, fmt.Errorf("invalid count %q: %w", s, err)
	}
	return strings.TrimSpace(key), n, nil
}

var typeAliases = map[string]answer.Type{
	"pg":     answer.TypeSingleChoice,
	"mcma":   answer.TypeMultiSelect,
	"bs":     answer.TypeTrueFalse,
	"sts":    answer.TypeMatch,
	"isian":  answer.TypeFillIn,
	"uraian": answer.TypeEssay,
}

func parseTypeFlag(s string) (answer.Type, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return answer.ParseType(s)
}

func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
