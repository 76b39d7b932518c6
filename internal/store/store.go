package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"missive/internal/config"
)

// Store manages newsletter persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the newsletter database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateNewsletter registers a new publication. The passcode must already be
// hashed. A colliding title surfaces as ErrDuplicateEntry.
func (s *Store) CreateNewsletter(ctx context.Context, title string, passcode []byte, folder string) (*Newsletter, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO newsletters (title, passcode, folder) VALUES (?, ?, ?)`,
		title,
		passcode,
		folder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert newsletter: %w", classify(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &Newsletter{ID: id, Title: title, Passcode: passcode, Folder: folder}, nil
}

// ListNewsletters returns every registered newsletter ordered by title.
func (s *Store) ListNewsletters(ctx context.Context) ([]*Newsletter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+newsletterColumns+` FROM newsletters ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list newsletters: %w", err)
	}
	defer rows.Close()

	var newsletters []*Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, err
		}
		newsletters = append(newsletters, n)
	}
	return newsletters, rows.Err()
}

// NewsletterByTitle fetches a newsletter by its unique title.
func (s *Store) NewsletterByTitle(ctx context.Context, title string) (*Newsletter, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+newsletterColumns+` FROM newsletters WHERE title = ?`, title)
	n, err := scanNewsletter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get newsletter: %w", err)
	}
	return n, nil
}

// Questions returns the prompts for one newsletter issue, default questions
// first and member submissions after in arrival order.
func (s *Store) Questions(ctx context.Context, newsletterID int64, issue int) ([]*Question, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+questionColumns+` FROM questions
         WHERE newsletter_id = ? AND issue = ?
         ORDER BY base DESC, id`,
		newsletterID,
		issue,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []*Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// InsertDefaultQuestions plants a newsletter's default set into an issue.
// The whole batch inserts in one transaction; a colliding seed rolls the
// batch back and surfaces as ErrDuplicateEntry, which callers treat as the
// issue already being seeded.
func (s *Store) InsertDefaultQuestions(ctx context.Context, newsletterID int64, issue int, seeds []Seed) error {
	if len(seeds) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, seed := range seeds {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO questions (newsletter_id, creator, text, issue, base, type)
             VALUES (?, ?, ?, ?, 1, ?)`,
			newsletterID,
			SystemCreator,
			seed.Text,
			issue,
			string(seed.Type),
		)
		if err != nil {
			return fmt.Errorf("insert default question: %w", classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

// InsertQuestion records a member-submitted prompt for an issue. Submitting
// the same text twice under the same name surfaces as ErrDuplicateEntry.
func (s *Store) InsertQuestion(ctx context.Context, newsletterID int64, creator, text string, qtype QuestionType, issue int) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO questions (newsletter_id, creator, text, issue, base, type)
         VALUES (?, ?, ?, ?, 0, ?)`,
		newsletterID,
		creator,
		text,
		issue,
		string(qtype),
	)
	if err != nil {
		return fmt.Errorf("insert question: %w", classify(err))
	}
	return nil
}

// InsertAnswers records a batch of answers in one transaction. A repeat
// submission by the same name for the same question is silently skipped, so
// the first answer recorded wins.
func (s *Store) InsertAnswers(ctx context.Context, answers []Answer) error {
	if len(answers) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin answer tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, answer := range answers {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO answers (question_id, name, img_path, text)
             VALUES (?, ?, ?, ?)
             ON CONFLICT (question_id, name) DO NOTHING`,
			answer.QuestionID,
			answer.Name,
			nullableString(answer.ImagePath),
			nullableString(answer.Text),
		)
		if err != nil {
			return fmt.Errorf("insert answer: %w", classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit answer tx: %w", err)
	}
	return nil
}

// Responses gathers every question in an issue together with the answers
// collected for it, in the same order Questions uses.
func (s *Store) Responses(ctx context.Context, newsletterID int64, issue int) ([]*QuestionResponses, error) {
	questions, err := s.Questions(ctx, newsletterID, issue)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT a.question_id, a.name, a.img_path, a.text
         FROM answers a
         JOIN questions q ON q.id = a.question_id
         WHERE q.newsletter_id = ? AND q.issue = ?
         ORDER BY a.rowid`,
		newsletterID,
		issue,
	)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	byQuestion := make(map[int64][]*Answer)
	for rows.Next() {
		var (
			answer  Answer
			imgPath sql.NullString
			text    sql.NullString
		)
		if err := rows.Scan(&answer.QuestionID, &answer.Name, &imgPath, &text); err != nil {
			return nil, err
		}
		if imgPath.Valid {
			answer.ImagePath = &imgPath.String
		}
		if text.Valid {
			answer.Text = &text.String
		}
		a := answer
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	responses := make([]*QuestionResponses, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, &QuestionResponses{
			Question: q,
			Answers:  byQuestion[q.ID],
		})
	}
	return responses, nil
}

const (
	newsletterColumns = "id, title, passcode, folder"
	questionColumns   = "id, newsletter_id, creator, text, issue, base, type"
)

func scanNewsletter(scanner interface{ Scan(dest ...any) error }) (*Newsletter, error) {
	var n Newsletter
	if err := scanner.Scan(&n.ID, &n.Title, &n.Passcode, &n.Folder); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanQuestion(scanner interface{ Scan(dest ...any) error }) (*Question, error) {
	var (
		q       Question
		base    int64
		typeStr string
	)
	if err := scanner.Scan(&q.ID, &q.NewsletterID, &q.Creator, &q.Text, &q.Issue, &base, &typeStr); err != nil {
		return nil, err
	}
	q.Base = base != 0
	q.Type = QuestionType(typeStr)
	return &q, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
