package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/exercise"
	"github.com/abhisek/latihan/internal/generate"
	"github.com/abhisek/latihan/internal/grading"
	"github.com/abhisek/latihan/internal/question"
	"github.com/abhisek/latihan/internal/sheet"
	"github.com/abhisek/latihan/internal/ui/theme"
)

var practiceCmd = &cobra.Command{
	Use:   "practice <token>",
	Short: "Answer the questions of a quiz token interactively",
	Long: `Deliver the questions of a quiz token one by one and grade each answer.

Answers use the spreadsheet notation: "B" for Pilihan Ganda, "A, C" for
Pilihan Jamak, "B, S, B" (or "S, T, S") for the statement types and plain
text for ISIAN and URAIAN. An empty line skips a question, "q" ends the
exercise.`,
	Args: cobra.ExactArgs(1),
	RunE: runPractice,
}

var gradeCmd = &cobra.Command{
	Use:   "grade <id> <answer>",
	Short: "Grade one answer against a question's key",
	Args:  cobra.ExactArgs(2),
	RunE:  runGrade,
}

func init() {
	f := practiceCmd.Flags()
	f.Int("duration", 0, "Time limit in minutes (0 uses the configured value)")
	f.Bool("shuffle-questions", true, "Shuffle question order")
	f.Bool("shuffle-options", true, "Shuffle options; answer keys follow")
	f.Bool("feedback", false, "Ask the LLM for a hint after a wrong answer")
	f.Uint64("seed", 0, "Shuffle seed (0 picks one at random)")
}

func runPractice(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	settings := app.cfg.Exercise
	if f.Changed("duration") {
		settings.Duration, _ = f.GetInt("duration")
	}
	if f.Changed("shuffle-questions") {
		settings.ShuffleQuestions, _ = f.GetBool("shuffle-questions")
	}
	if f.Changed("shuffle-options") {
		settings.ShuffleOptions, _ = f.GetBool("shuffle-options")
	}
	withFeedback, _ := f.GetBool("feedback")
	seed, _ := f.GetUint64("seed")
	if seed == 0 {
		seed = rand.Uint64()
	}

	s, _, err := loadBank(cmd)
	if err != nil {
		return err
	}

	opts := []exercise.Option{
		exercise.WithRand(rand.New(rand.NewPCG(seed, seed))),
		exercise.WithLogger(app.log),
	}
	if withFeedback {
		ctx, cancel := llmContext(cmd)
		defer cancel()
		provider, closeStore, err := newProvider(ctx, cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		opts = append(opts, exercise.WithFeedback(generate.NewAssistant(provider, generateConfig())))
	}

	sess, err := exercise.Start(s.Snapshot(), args[0], settings, opts...)
	if err != nil {
		return err
	}

	fmt.Println(theme.Title.Render(fmt.Sprintf("Latihan %s: %d soal", sess.Token(), sess.Len())))
	if settings.Duration > 0 {
		fmt.Println(theme.Subtitle.Render(fmt.Sprintf("Waktu: %d menit", settings.Duration)))
	}
	if md := sess.TeachingMaterial(); md != "" {
		fmt.Println(theme.Card.Render(md))
	}
	fmt.Println()

	runExercise(cmd, sess, os.Stdin)

	sum := sess.Summary()
	fmt.Printf("── Summary: %d/%d correct", sum.Correct, sum.Checked-sum.NeedsReview)
	if sum.NeedsReview > 0 {
		fmt.Printf(", %d for review", sum.NeedsReview)
	}
	fmt.Printf(", %d of %d answered, %s ──\n", sum.Checked, sum.Total, sum.Duration.Round(time.Second))
	return nil
}

func runExercise(cmd *cobra.Command, sess *exercise.Session, in io.Reader) {
	scanner := bufio.NewScanner(in)

	for {
		if sess.Expired() {
			fmt.Println(theme.Review.Render("Waktu habis."))
			return
		}

		rec := sess.Current().Record()
		showQuestion(sess, rec)

		var submitted answer.Value
		for {
			fmt.Print("\nYour answer: ")
			if !scanner.Scan() {
				fmt.Println("\n(input closed)")
				return
			}
			line := strings.TrimSpace(scanner.Text())
			if strings.EqualFold(line, "q") {
				return
			}
			if line == "" {
				break
			}
			v, err := sheet.DecodeKey(rec.Type, line, len(rec.Options))
			if err == nil && emptyAnswer(v) {
				err = errNoOptionRecognized
			}
			if err == nil {
				err = applyAnswer(sess.Current(), v)
			}
			if err != nil {
				fmt.Println(theme.Hint.Render(fmt.Sprintf("Jawaban tidak dikenali: %v", err)))
				// Start the question over so a partial answer is not kept.
				_ = sess.Goto(sess.Index())
				continue
			}
			submitted = v
			break
		}

		if submitted.Kind() == answer.KindNone {
			fmt.Println("(skipped)")
		} else if v, err := sess.Check(); err == nil {
			app.metrics.ObserveVerdict(string(rec.Type), v.Correct, v.NeedsReview)
			showVerdict(cmd, sess, rec, v)
		}
		fmt.Println()

		if err := sess.Next(); err != nil {
			return
		}
	}
}

func showQuestion(sess *exercise.Session, rec question.Record) {
	header := fmt.Sprintf("── Soal %d/%d ── %s · %s", sess.Index()+1, sess.Len(), rec.Type, rec.Level)
	if r := sess.Remaining(); r >= 0 {
		header += fmt.Sprintf(" · sisa %s", r.Round(time.Second))
	}
	fmt.Println(theme.Heading.Render(header))
	fmt.Println(rec.Text)
	if rec.Image != "" {
		fmt.Println(theme.Hint.Render("[gambar: " + rec.Image + "]"))
	}

	spec, _ := answer.Lookup(rec.Type)
	switch spec.Shape {
	case answer.KindSingleIndex, answer.KindIndexSet:
		for i, o := range rec.Options {
			fmt.Printf("  %c) %s\n", 'A'+i, o)
		}
	case answer.KindBoolSequence:
		l := rec.Labels()
		for i, o := range rec.Options {
			fmt.Printf("  %d. %s\n", i+1, o)
		}
		fmt.Println(theme.Hint.Render(fmt.Sprintf("%s = %s, %s = %s", spec.TrueLabel, l.True, spec.FalseLabel, l.False)))
	}
}

func showVerdict(cmd *cobra.Command, sess *exercise.Session, rec question.Record, v grading.Verdict) {
	key := sheet.EncodeKey(rec.Type, rec.CorrectAnswer)
	switch {
	case v.NeedsReview:
		fmt.Println(theme.Review.Render("• Dinilai guru."))
	case v.Correct:
		fmt.Println(theme.Correct.Render("✓ Benar!"))
	default:
		fmt.Printf("%s Kunci: %s\n", theme.Incorrect.Render("✗ Kurang tepat."), key)
		ctx, cancel := llmContext(cmd)
		if hint := sess.Feedback(ctx); hint != "" {
			fmt.Println(theme.Hint.Render(hint))
		}
		cancel()
	}
	if rec.Explanation != "" {
		fmt.Printf("Pembahasan: %s\n", rec.Explanation)
	}
}

var errNoOptionRecognized = errors.New("no option recognized")

// emptyAnswer reports a decoded value that selects nothing, such as a
// multi-select line whose letters were all out of range.
func emptyAnswer(v answer.Value) bool {
	switch v.Kind() {
	case answer.KindNone:
		return true
	case answer.KindIndexSet:
		return len(v.Indices()) == 0
	case answer.KindBoolSequence:
		return len(v.Bools()) == 0
	}
	return false
}

// applyAnswer feeds a decoded answer into the interaction.
func applyAnswer(in *exercise.Interaction, v answer.Value) error {
	switch v.Kind() {
	case answer.KindSingleIndex:
		i, _ := v.Index()
		return in.Select(i)
	case answer.KindIndexSet:
		for _, i := range v.Indices() {
			if err := in.Toggle(i); err != nil {
				return err
			}
		}
	case answer.KindBoolSequence:
		for i, b := range v.Bools() {
			if err := in.Mark(i, b); err != nil {
				return err
			}
		}
	case answer.KindFreeText:
		t, _ := v.Text()
		return in.Type(t)
	}
	return nil
}

func runGrade(cmd *cobra.Command, args []string) error {
	s, _, err := loadBank(cmd)
	if err != nil {
		return err
	}
	rec, ok := s.Snapshot().Get(args[0])
	if !ok {
		return fmt.Errorf("question %s not found", args[0])
	}

	v, err := sheet.DecodeKey(rec.Type, args[1], len(rec.Options))
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	verdict := grading.Grade(rec, v)
	app.metrics.ObserveVerdict(string(rec.Type), verdict.Correct, verdict.NeedsReview)

	switch {
	case verdict.NeedsReview:
		fmt.Println(theme.Review.Render("needs review"))
	case verdict.Correct:
		fmt.Println(theme.Correct.Render("correct"))
	default:
		fmt.Printf("%s (key: %s)\n", theme.Incorrect.Render("incorrect"), sheet.EncodeKey(rec.Type, rec.CorrectAnswer))
	}
	return nil
}
