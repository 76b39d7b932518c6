package store

// QuestionType distinguishes free-text prompts from photo prompts.
type QuestionType string

const (
	TypeText  QuestionType = "text"
	TypeImage QuestionType = "image"
)

// SystemCreator marks questions seeded from a newsletter's default set
// rather than submitted by a member.
const SystemCreator = "SYS"

// Newsletter is a registered publication. Passcode holds the salted hash
// produced by the passcode package, never the plaintext.
type Newsletter struct {
	ID       int64
	Title    string
	Passcode []byte
	Folder   string
}

// Question is a prompt attached to a newsletter issue. Base questions come
// from the newsletter's default set and repeat every issue.
type Question struct {
	ID           int64
	NewsletterID int64
	Creator      string
	Text         string
	Issue        int
	Base         bool
	Type         QuestionType
}

// Seed is a default question to plant into a fresh issue.
type Seed struct {
	Text string
	Type QuestionType
}

// Answer is one member's response to a question. Exactly one of ImagePath
// and Text is expected to be set, matching the question's type.
type Answer struct {
	QuestionID int64
	Name       string
	ImagePath  *string
	Text       *string
}

// QuestionResponses pairs a question with every answer collected for it.
type QuestionResponses struct {
	Question *Question
	Answers  []*Answer
}
