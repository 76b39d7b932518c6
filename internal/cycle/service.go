// Package cycle drives the four-week newsletter workflow: unlocking a
// newsletter by passcode, serving whichever page the current phase calls
// for, recording submissions, and advancing the issue counter on the daily
// tick.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	g "github.com/maragudk/gomponents"

	"missive/internal/auth"
	"missive/internal/config"
	"missive/internal/fileutil"
	"missive/internal/logging"
	"missive/internal/newsletter"
	"missive/internal/notify"
	"missive/internal/phase"
	"missive/internal/render"
	"missive/internal/store"
)

const (
	questionThanks = "Thank you for submitting your question :)."
	answerThanks   = "Thank you for submitting your answers :)."
)

// Service coordinates the workflow across the store, newsletter folders,
// and mail delivery.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	notifier notify.Service
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock, pinning the phase calendar in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService builds the workflow service.
func NewService(cfg *config.Config, st *store.Store, notifier notify.Service, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	svc := &Service{
		cfg:      cfg,
		store:    st,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Unlock resolves a passcode to its newsletter. An unknown passcode is
// tagged ErrAuth.
func (s *Service) Unlock(ctx context.Context, code string) (*store.Newsletter, error) {
	n, err := auth.Authenticate(ctx, s.store, code)
	if err != nil {
		if errors.Is(err, auth.ErrNoMatch) {
			return nil, Wrap(ErrAuth, "unlock", "no newsletter matches passcode", nil)
		}
		return nil, fmt.Errorf("unlock: %w", err)
	}
	return n, nil
}

// Render produces the page for the requested issue. A requested value of
// zero means the current issue, which renders the question form, answer
// form, or published issue depending on the phase. Past issues always
// render as published newsletters; negative or future ones are ErrNotFound.
func (s *Service) Render(ctx context.Context, n *store.Newsletter, requested int) (g.Node, error) {
	if requested < 0 {
		return nil, Wrap(ErrNotFound, "render", fmt.Sprintf("issue %d does not exist", requested), nil)
	}

	current, err := newsletter.CurrentIssue(n.Folder)
	if err != nil {
		return nil, Wrap(ErrConfig, "render", "read issue counter", err)
	}

	issue := requested
	if issue == 0 {
		issue = current
	}
	if issue > current {
		return nil, Wrap(ErrNotFound, "render", fmt.Sprintf("issue %d does not exist yet", issue), nil)
	}
	if issue < current {
		return s.renderPublished(ctx, n, issue, current)
	}

	switch phase.StateAt(s.now()) {
	case phase.CollectQuestions:
		questions, err := s.ensureSeeded(ctx, n, issue)
		if err != nil {
			return nil, err
		}
		return render.QuestionForm(n.Title, issue, questions), nil
	case phase.CollectAnswers:
		questions, err := s.ensureSeeded(ctx, n, issue)
		if err != nil {
			return nil, err
		}
		return render.AnswerForm(n.Title, issue, questions), nil
	default:
		return s.renderPublished(ctx, n, issue, current)
	}
}

func (s *Service) renderPublished(ctx context.Context, n *store.Newsletter, issue, current int) (g.Node, error) {
	responses, err := s.store.Responses(ctx, n.ID, issue)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	return render.Newsletter(n.Title, issue, current, responses), nil
}

// ensureSeeded plants the newsletter's default questions into an issue that
// has none yet. Member questions may already exist when a submission beat
// the first render, so only the absence of base questions triggers the
// seed. A concurrent seeder winning the race is not an error.
func (s *Service) ensureSeeded(ctx context.Context, n *store.Newsletter, issue int) ([]*store.Question, error) {
	questions, err := s.store.Questions(ctx, n.ID, issue)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if hasBaseQuestion(questions) {
		return questions, nil
	}

	folderCfg, err := newsletter.LoadConfig(n.Folder)
	if err != nil {
		return nil, Wrap(ErrConfig, "seed", "load newsletter config", err)
	}
	seeds := make([]store.Seed, 0, len(folderCfg.Defaults))
	for _, d := range folderCfg.Defaults {
		seeds = append(seeds, store.Seed{Text: d.Text, Type: store.QuestionType(d.Type)})
	}
	err = s.store.InsertDefaultQuestions(ctx, n.ID, issue, seeds)
	if err != nil && !errors.Is(err, store.ErrDuplicateEntry) {
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	if err == nil {
		s.logger.Info("seeded default questions", "newsletter", n.Title, "issue", issue, "count", len(seeds))
	}

	questions, err = s.store.Questions(ctx, n.ID, issue)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

func hasBaseQuestion(questions []*store.Question) bool {
	for _, q := range questions {
		if q.Base {
			return true
		}
	}
	return false
}

// SubmitQuestion records a member question for the current issue. Repeat
// submissions of the same question are acknowledged without complaint.
func (s *Service) SubmitQuestion(ctx context.Context, n *store.Newsletter, name, question string) (string, error) {
	name = strings.TrimSpace(name)
	question = strings.TrimSpace(question)
	if name == "" {
		return "", Wrap(ErrValidation, "submit question", "name is required", nil)
	}
	if question == "" {
		return "", Wrap(ErrValidation, "submit question", "question is required", nil)
	}

	issue, err := newsletter.CurrentIssue(n.Folder)
	if err != nil {
		return "", Wrap(ErrConfig, "submit question", "read issue counter", err)
	}

	if err := s.store.InsertQuestion(ctx, n.ID, name, question, store.TypeText, issue); err != nil {
		if errors.Is(err, store.ErrDuplicateEntry) {
			return questionThanks, nil
		}
		return "", fmt.Errorf("record question: %w", err)
	}
	s.logger.Info("question submitted", "newsletter", n.Title, "issue", issue, "creator", name)
	return questionThanks, nil
}

// Upload is a staged answer image: the multipart field it arrived under and
// the temp file the server spooled it to.
type Upload struct {
	Field string
	Path  string
}

// SubmitAnswers records a member's answers for the current issue. Blank
// values are skipped, unknown field names are ErrMalformedForm, and a
// missing name is ErrValidation. The first answer a member submits for a
// question is the one that sticks.
func (s *Service) SubmitAnswers(ctx context.Context, n *store.Newsletter, fields url.Values, uploads []Upload) (string, error) {
	name := strings.TrimSpace(fields.Get("name"))
	if name == "" {
		return "", Wrap(ErrValidation, "submit answers", "name is required", nil)
	}

	issue, err := newsletter.CurrentIssue(n.Folder)
	if err != nil {
		return "", Wrap(ErrConfig, "submit answers", "read issue counter", err)
	}

	var answers []store.Answer

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == "name" {
			continue
		}
		id, err := parseFieldID(key, "question_")
		if err != nil {
			return "", err
		}
		value := strings.TrimSpace(fields.Get(key))
		if value == "" {
			continue
		}
		text := value
		answers = append(answers, store.Answer{QuestionID: id, Name: name, Text: &text})
	}

	for _, upload := range uploads {
		id, err := parseFieldID(upload.Field, "image_")
		if err != nil {
			return "", err
		}
		publicPath, err := s.publishImage(issue, upload.Path)
		if err != nil {
			return "", fmt.Errorf("store answer image: %w", err)
		}
		answers = append(answers, store.Answer{QuestionID: id, Name: name, ImagePath: &publicPath})
	}

	if len(answers) == 0 {
		return answerThanks, nil
	}
	if err := s.store.InsertAnswers(ctx, answers); err != nil {
		return "", fmt.Errorf("record answers: %w", err)
	}
	s.logger.Info("answers submitted", "newsletter", n.Title, "issue", issue, "name", name, "count", len(answers))
	return answerThanks, nil
}

func parseFieldID(key, prefix string) (int64, error) {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok {
		return 0, Wrap(ErrMalformedForm, "submit answers", fmt.Sprintf("unexpected field %q", key), nil)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, Wrap(ErrMalformedForm, "submit answers", fmt.Sprintf("bad question id in field %q", key), err)
	}
	return id, nil
}

// publishImage moves a staged upload into the public image directory and
// returns the relative path stored with the answer.
func (s *Service) publishImage(issue int, srcPath string) (string, error) {
	base := filepath.Base(srcPath)
	dst := filepath.Join(s.cfg.Paths.ImageDir, strconv.Itoa(issue), base)
	if err := fileutil.CopyFile(srcPath, dst); err != nil {
		return "", err
	}
	_ = os.Remove(srcPath)
	return path.Join("images", strconv.Itoa(issue), base), nil
}

// errAdvanceIssue marks a failure to read or advance an issue counter. A
// counter that cannot move leaves the whole calendar in doubt, so it aborts
// the tick instead of skipping to the next newsletter.
var errAdvanceIssue = errors.New("advance issue counter")

// Tick runs the daily maintenance pass: advance issue counters that are due
// and send phase mail. A broken newsletter config does not stop the others;
// the first error is returned after every folder has been visited. Counter
// failures abort immediately.
func (s *Service) Tick(ctx context.Context) error {
	newsletters, err := s.store.ListNewsletters(ctx)
	if err != nil {
		return fmt.Errorf("list newsletters: %w", err)
	}

	now := s.now()
	var firstErr error
	for _, n := range newsletters {
		if err := s.tickNewsletter(ctx, n, now); err != nil {
			s.logger.Error("tick failed", "newsletter", n.Title, "error", err)
			if errors.Is(err, errAdvanceIssue) {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.reportOrphanFolders(newsletters)
	return firstErr
}

// reportOrphanFolders flags newsletter folders on disk that no database row
// points at, usually leftovers from a failed create or a manual rename.
func (s *Service) reportOrphanFolders(newsletters []*store.Newsletter) {
	folders, err := newsletter.Folders(s.cfg.Paths.NewslettersDir)
	if err != nil {
		s.logger.Warn("list newsletter folders", "error", err)
		return
	}
	registered := make(map[string]struct{}, len(newsletters))
	for _, n := range newsletters {
		registered[n.Folder] = struct{}{}
	}
	for _, folder := range folders {
		if _, ok := registered[folder]; !ok {
			s.logger.Warn("newsletter folder has no registry entry", "folder", folder)
		}
	}
}

func (s *Service) tickNewsletter(ctx context.Context, n *store.Newsletter, now time.Time) error {
	folderCfg, err := newsletter.LoadConfig(n.Folder)
	if err != nil {
		return Wrap(ErrConfig, "tick", "load newsletter config", err)
	}

	before, err := newsletter.CurrentIssue(n.Folder)
	if err != nil {
		return fmt.Errorf("%w: %w", errAdvanceIssue, err)
	}
	if err := newsletter.CheckAndIncrement(n.Folder, now); err != nil {
		return fmt.Errorf("%w: %w", errAdvanceIssue, err)
	}
	after, err := newsletter.CurrentIssue(n.Folder)
	if err != nil {
		return fmt.Errorf("%w: %w", errAdvanceIssue, err)
	}

	if after != before {
		s.logger.Info("issue advanced", "newsletter", n.Title, "issue", after)
		if err := s.notifier.QuestionsOpen(ctx, folderCfg.Email, n.Title, after); err != nil {
			s.logger.Warn("questions-open mail failed", "newsletter", n.Title, "error", err)
		}
	}

	// Sunday opens a new week, so phase transitions land on Sundays.
	if now.Weekday() == time.Sunday {
		switch phase.Slot(now) {
		case 2:
			if err := s.notifier.AnswersOpen(ctx, folderCfg.Email, n.Title, after); err != nil {
				s.logger.Warn("answers-open mail failed", "newsletter", n.Title, "error", err)
			}
		case 3:
			if err := s.notifier.IssuePublished(ctx, folderCfg.Email, n.Title, folderCfg.Link, after); err != nil {
				s.logger.Warn("issue-published mail failed", "newsletter", n.Title, "error", err)
			}
		}
	}
	return nil
}
