package store_test

import (
	"context"
	"errors"
	"testing"

	"missive/internal/store"
	"missive/internal/testsupport"
)

func seedQuestions() []store.Seed {
	return []store.Seed{
		{Text: "How was your month?", Type: store.TypeText},
		{Text: "Share a photo!", Type: store.TypeImage},
	}
}

func strptr(s string) *string {
	return &s
}

func TestCreateNewsletterRejectsDuplicateTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	testsupport.MustCreateNewsletter(t, st, "family", "open sesame", "/tmp/family")
	_, err := st.CreateNewsletter(context.Background(), "family", []byte("hash"), "/tmp/other")
	if !errors.Is(err, store.ErrDuplicateEntry) {
		t.Fatalf("error = %v, want ErrDuplicateEntry", err)
	}
}

func TestListNewslettersOrdersByTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	testsupport.MustCreateNewsletter(t, st, "friends", "pw", "/tmp/friends")
	testsupport.MustCreateNewsletter(t, st, "family", "pw", "/tmp/family")

	newsletters, err := st.ListNewsletters(context.Background())
	if err != nil {
		t.Fatalf("ListNewsletters failed: %v", err)
	}
	if len(newsletters) != 2 {
		t.Fatalf("newsletter count = %d, want 2", len(newsletters))
	}
	if newsletters[0].Title != "family" || newsletters[1].Title != "friends" {
		t.Fatalf("unexpected order: %q, %q", newsletters[0].Title, newsletters[1].Title)
	}
}

func TestNewsletterByTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	created := testsupport.MustCreateNewsletter(t, st, "family", "pw", "/tmp/family")

	got, err := st.NewsletterByTitle(context.Background(), "family")
	if err != nil {
		t.Fatalf("NewsletterByTitle failed: %v", err)
	}
	if got == nil || got.ID != created.ID || got.Folder != "/tmp/family" {
		t.Fatalf("unexpected newsletter: %+v", got)
	}

	missing, err := st.NewsletterByTitle(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("NewsletterByTitle for missing title failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing title, got %+v", missing)
	}
}

func TestInsertDefaultQuestionsSeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	n := testsupport.MustCreateNewsletter(t, st, "family", "pw", "/tmp/family")

	if err := st.InsertDefaultQuestions(ctx, n.ID, 1, seedQuestions()); err != nil {
		t.Fatalf("InsertDefaultQuestions failed: %v", err)
	}

	err := st.InsertDefaultQuestions(ctx, n.ID, 1, seedQuestions())
	if !errors.Is(err, store.ErrDuplicateEntry) {
		t.Fatalf("second seed error = %v, want ErrDuplicateEntry", err)
	}

	questions, err := st.Questions(ctx, n.ID, 1)
	if err != nil {
		t.Fatalf("Questions failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("question count after repeated seed = %d, want 2", len(questions))
	}
	for _, q := range questions {
		if !q.Base || q.Creator != store.SystemCreator {
			t.Fatalf("seeded question not marked base: %+v", q)
		}
	}
	if questions[1].Type != store.TypeImage {
		t.Fatalf("expected image type on second seed, got %q", questions[1].Type)
	}
}

func TestQuestionsOrdersDefaultsFirst(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	n := testsupport.MustCreateNewsletter(t, st, "family", "pw", "/tmp/family")

	if err := st.InsertQuestion(ctx, n.ID, "jo", "What did you cook?", store.TypeText, 1); err != nil {
		t.Fatalf("InsertQuestion failed: %v", err)
	}
	if err := st.InsertDefaultQuestions(ctx, n.ID, 1, seedQuestions()); err != nil {
		t.Fatalf("InsertDefaultQuestions failed: %v", err)
	}

	questions, err := st.Questions(ctx, n.ID, 1)
	if err != nil {
		t.Fatalf("Questions failed: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("question count = %d, want 3", len(questions))
	}
	if !questions[0].Base || !questions[1].Base || questions[2].Base {
		t.Fatalf("expected defaults first, got %+v", questions)
	}
	if questions[2].Creator != "jo" {
		t.Fatalf("expected member question last, got %+v", questions[2])
	}
}

func TestInsertQuestionRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	n := testsupport.MustCreateNewsletter(t, st, "family", "pw", "/tmp/family")

	if err := st.InsertQuestion(ctx, n.ID, "jo", "What did you cook?", store.TypeText, 1); err != nil {
		t.Fatalf("InsertQuestion failed: %v", err)
	}
	err := st.InsertQuestion(ctx, n.ID, "jo", "What did you cook?", store.TypeText, 1)
	if !errors.Is(err, store.ErrDuplicateEntry) {
		t.Fatalf("duplicate question error = %v, want ErrDuplicateEntry", err)
	}

	// Same text in the next issue is a fresh prompt.
	if err := st.InsertQuestion(ctx, n.ID, "jo", "What did you cook?", store.TypeText, 2); err != nil {
		t.Fatalf("InsertQuestion for next issue failed: %v", err)
	}
}

func TestInsertAnswersFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	n := testsupport.MustCreateNewsletter(t, st, "family", "pw", "/tmp/family")

	if err := st.InsertDefaultQuestions(ctx, n.ID, 1, seedQuestions()); err != nil {
		t.Fatalf("InsertDefaultQuestions failed: %v", err)
	}
	questions, err := st.Questions(ctx, n.ID, 1)
	if err != nil {
		t.Fatalf("Questions failed: %v", err)
	}

	first := []store.Answer{{QuestionID: questions[0].ID, Name: "jo", Text: strptr("It was great")}}
	if err := st.InsertAnswers(ctx, first); err != nil {
		t.Fatalf("InsertAnswers failed: %v", err)
	}
	second := []store.Answer{{QuestionID: questions[0].ID, Name: "jo", Text: strptr("Actually, terrible")}}
	if err := st.InsertAnswers(ctx, second); err != nil {
		t.Fatalf("repeat InsertAnswers failed: %v", err)
	}

	responses, err := st.Responses(ctx, n.ID, 1)
	if err != nil {
		t.Fatalf("Responses failed: %v", err)
	}
	answers := responses[0].Answers
	if len(answers) != 1 {
		t.Fatalf("answer count = %d, want 1", len(answers))
	}
	if answers[0].Text == nil || *answers[0].Text != "It was great" {
		t.Fatalf("expected first answer to win, got %+v", answers[0])
	}

	// The unanswered question still shows up, just with nothing under it.
	if len(responses) != 2 {
		t.Fatalf("response count = %d, want 2", len(responses))
	}
	if len(responses[1].Answers) != 0 {
		t.Fatalf("expected no answers for second question, got %+v", responses[1].Answers)
	}
}

func TestResponsesGroupsAnswersByQuestion(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	n := testsupport.MustCreateNewsletter(t, st, "family", "pw", "/tmp/family")

	if err := st.InsertDefaultQuestions(ctx, n.ID, 1, seedQuestions()); err != nil {
		t.Fatalf("InsertDefaultQuestions failed: %v", err)
	}
	questions, err := st.Questions(ctx, n.ID, 1)
	if err != nil {
		t.Fatalf("Questions failed: %v", err)
	}

	answers := []store.Answer{
		{QuestionID: questions[0].ID, Name: "jo", Text: strptr("All good")},
		{QuestionID: questions[0].ID, Name: "sam", Text: strptr("Busy one")},
		{QuestionID: questions[1].ID, Name: "jo", ImagePath: strptr("images/1/abc.jpg")},
	}
	if err := st.InsertAnswers(ctx, answers); err != nil {
		t.Fatalf("InsertAnswers failed: %v", err)
	}

	responses, err := st.Responses(ctx, n.ID, 1)
	if err != nil {
		t.Fatalf("Responses failed: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("response count = %d, want 2", len(responses))
	}
	if len(responses[0].Answers) != 2 {
		t.Fatalf("first question answer count = %d, want 2", len(responses[0].Answers))
	}
	if len(responses[1].Answers) != 1 {
		t.Fatalf("second question answer count = %d, want 1", len(responses[1].Answers))
	}
	img := responses[1].Answers[0]
	if img.ImagePath == nil || *img.ImagePath != "images/1/abc.jpg" {
		t.Fatalf("unexpected image answer: %+v", img)
	}
	if img.Text != nil {
		t.Fatalf("expected nil text on image answer, got %q", *img.Text)
	}

	// An issue with no questions yields no responses at all.
	empty, err := st.Responses(ctx, n.ID, 2)
	if err != nil {
		t.Fatalf("Responses for empty issue failed: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected nil responses for empty issue, got %+v", empty)
	}
}
