package exercise

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/bank"
	"github.com/abhisek/latihan/internal/grading"
	"github.com/abhisek/latihan/internal/question"
	"github.com/abhisek/latihan/internal/sheet"
)

// ErrTokenNotFound is returned when a token has no active questions.
var ErrTokenNotFound = errors.New("no active questions for token")

// FeedbackSource writes a short hint for a wrong submission. It must not
// fail; implementations return a fixed text instead.
type FeedbackSource interface {
	Feedback(ctx context.Context, rec question.Record, submitted answer.Value) string
}

// Option configures a Session.
type Option func(*Session)

// WithRand sets the source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithFeedback sets the source asked for hints on wrong answers.
func WithFeedback(f FeedbackSource) Option {
	return func(s *Session) { s.feedback = f }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session is one delivered exercise: the active questions of a token in
// delivery order, with one live Interaction for the current question.
type Session struct {
	token     string
	material  string
	settings  sheet.Settings
	questions []question.Record
	verdicts  []*grading.Verdict

	index   int
	current *Interaction
	started time.Time

	rng      *rand.Rand
	feedback FeedbackSource
	now      func() time.Time
	logger   *zap.Logger
}

// Start delivers the active questions of token from snap. Questions are
// ordered by Order, then optionally shuffled; option shuffling remaps each
// correct answer so grading stays correct.
func Start(snap *bank.Snapshot, token string, settings sheet.Settings, opts ...Option) (*Session, error) {
	s := &Session{
		token:    question.NormalizeToken(token),
		settings: settings,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	qs := snap.ByToken(s.token)
	if len(qs) == 0 {
		return nil, ErrTokenNotFound
	}
	if settings.ShuffleQuestions {
		s.rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	}
	if settings.ShuffleOptions {
		for i := range qs {
			qs[i] = ShuffleOptions(qs[i], s.rng)
		}
	}

	s.questions = qs
	s.verdicts = make([]*grading.Verdict, len(qs))
	s.material = snap.TeachingMaterial(s.token)
	s.started = s.now()
	s.current = NewInteraction(qs[0])

	s.logger.Info("exercise started",
		zap.String("token", s.token),
		zap.Int("questions", len(qs)),
		zap.Bool("shuffle_questions", settings.ShuffleQuestions),
		zap.Bool("shuffle_options", settings.ShuffleOptions))
	return s, nil
}

func (s *Session) Token() string            { return s.token }
func (s *Session) Settings() sheet.Settings { return s.settings }
func (s *Session) Len() int                 { return len(s.questions) }
func (s *Session) Index() int               { return s.index }
func (s *Session) Current() *Interaction    { return s.current }

// TeachingMaterial returns the markdown attached to the token, if any.
func (s *Session) TeachingMaterial() string { return s.material }

// Questions returns the delivered questions in delivery order.
func (s *Session) Questions() []question.Record {
	out := make([]question.Record, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Clone()
	}
	return out
}

// Goto moves to question i with a fresh Unanswered interaction.
func (s *Session) Goto(i int) error {
	if i < 0 || i >= len(s.questions) {
		return ErrOutOfRange
	}
	s.index = i
	s.current = NewInteraction(s.questions[i])
	return nil
}

func (s *Session) Next() error { return s.Goto(s.index + 1) }
func (s *Session) Prev() error { return s.Goto(s.index - 1) }

// Check grades the current interaction and records the verdict.
func (s *Session) Check() (grading.Verdict, error) {
	v, err := s.current.Check()
	if err != nil {
		return v, err
	}
	s.verdicts[s.index] = &v
	return v, nil
}

// Feedback asks the feedback source for a hint on the current question.
// It returns "" when the question is unchecked, correct, or no source is
// configured.
func (s *Session) Feedback(ctx context.Context) string {
	v, ok := s.current.Verdict()
	if !ok || v.Correct || s.feedback == nil {
		return ""
	}
	return s.feedback.Feedback(ctx, s.current.Record(), s.current.Submitted())
}

// Deadline is the end of the time limit; zero when there is none.
func (s *Session) Deadline() time.Time {
	if s.settings.Duration <= 0 {
		return time.Time{}
	}
	return s.started.Add(time.Duration(s.settings.Duration) * time.Minute)
}

// Remaining returns the time left, or -1 without a time limit.
func (s *Session) Remaining() time.Duration {
	d := s.Deadline()
	if d.IsZero() {
		return -1
	}
	return max(d.Sub(s.now()), 0)
}

// Expired reports whether the time limit has passed.
func (s *Session) Expired() bool {
	return s.Remaining() == 0
}

// Summary holds the results shown at the end of an exercise.
type Summary struct {
	Token       string
	Duration    time.Duration
	Total       int
	Checked     int
	Correct     int
	NeedsReview int
	Accuracy    float64
}

// Summary tallies the verdicts recorded so far.
func (s *Session) Summary() Summary {
	sum := Summary{
		Token:    s.token,
		Duration: s.now().Sub(s.started),
		Total:    len(s.questions),
	}
	graded := 0
	for _, v := range s.verdicts {
		if v == nil {
			continue
		}
		sum.Checked++
		if v.NeedsReview {
			sum.NeedsReview++
			continue
		}
		graded++
		if v.Correct {
			sum.Correct++
		}
	}
	if graded > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(graded)
	}
	return sum
}

// FeedbackFunc adapts a function to FeedbackSource.
type FeedbackFunc func(ctx context.Context, rec question.Record, submitted answer.Value) string

func (f FeedbackFunc) Feedback(ctx context.Context, rec question.Record, submitted answer.Value) string {
	return f(ctx, rec, submitted)
}
