// Package render builds the HTML pages served to newsletter members.
package render

import (
	"fmt"
	"strings"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"missive/internal/store"
)

var titleCaser = cases.Title(language.English)

// Layout wraps page content in the shared document shell.
func Layout(title string, children ...g.Node) g.Node {
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				Link(Rel("stylesheet"), Href("/assets/main.css")),
				TitleEl(g.Text(title)),
			),
			Body(
				Div(Class("container"),
					navbar(title),
					Main(
						g.Group(children),
					),
				),
			),
		),
	)
}

func navbar(title string) g.Node {
	return Nav(Class("nav"),
		Div(Class("brand"), A(Href("/"), g.Text(titleCaser.String(title)))),
	)
}

// Unlock is the landing page: a single passcode prompt.
func Unlock() g.Node {
	return Layout("Missive",
		Form(Method("post"), Action("/unlock"),
			Label(For("passcode"), g.Text("Passcode")),
			Input(Type("password"), Name("passcode"), ID("passcode"), Required()),
			Button(Type("submit"), g.Text("Unlock")),
		),
	)
}

// QuestionForm collects a member question during the first two weeks of a
// cycle. Questions members have already submitted are listed above the
// form; the seeded defaults are left out since they repeat every issue.
func QuestionForm(title string, issue int, questions []*store.Question) g.Node {
	submitted := make([]g.Node, 0, len(questions))
	for _, q := range questions {
		if q.Base {
			continue
		}
		submitted = append(submitted, Li(questionLabel(q)))
	}
	var list g.Node
	if len(submitted) > 0 {
		list = Section(Class("submitted"),
			H2(g.Text("Questions so far")),
			Ul(g.Group(submitted)),
		)
	}

	return Layout(title,
		H1(g.Textf("%s #%d", titleCaser.String(title), issue)),
		P(g.Text("Questions are open. What do you want to ask everyone this month?")),
		list,
		Form(Method("post"), Action("/question"),
			Label(For("name"), g.Text("Your name")),
			Input(Type("text"), Name("name"), ID("name"), Required()),
			Label(For("question"), g.Text("Your question")),
			Textarea(Name("question"), ID("question"), Required()),
			Button(Type("submit"), g.Text("Submit")),
		),
	)
}

// AnswerForm collects answers to every question in the current issue. Text
// questions get a textarea named question_<id>, image questions get a file
// input named image_<id>.
func AnswerForm(title string, issue int, questions []*store.Question) g.Node {
	fields := make([]g.Node, 0, len(questions)*2+2)
	fields = append(fields,
		Label(For("name"), g.Text("Your name")),
		Input(Type("text"), Name("name"), ID("name"), Required()),
	)
	for _, q := range questions {
		key := answerKey(q)
		fields = append(fields, Label(For(key), questionLabel(q)))
		if q.Type == store.TypeImage {
			fields = append(fields, Input(Type("file"), Name(key), ID(key), Accept("image/*")))
		} else {
			fields = append(fields, Textarea(Name(key), ID(key)))
		}
	}
	fields = append(fields, Button(Type("submit"), g.Text("Submit")))

	return Layout(title,
		H1(g.Textf("%s #%d", titleCaser.String(title), issue)),
		P(g.Text("Answers are open. Leave blank anything you would rather skip.")),
		Form(Method("post"), Action("/answer"), EncType("multipart/form-data"),
			g.Group(fields),
		),
	)
}

// Newsletter is the published issue: every question with the answers
// gathered for it, followed by links to every issue up to current.
func Newsletter(title string, issue, current int, responses []*store.QuestionResponses) g.Node {
	sections := make([]g.Node, 0, len(responses))
	for _, r := range responses {
		answers := make([]g.Node, 0, len(r.Answers))
		for _, a := range r.Answers {
			answers = append(answers, answerNode(a))
		}
		sections = append(sections, Section(Class("question"),
			H2(questionLabel(r.Question)),
			g.Group(answers),
		))
	}
	return Layout(title,
		H1(g.Textf("%s #%d", titleCaser.String(title), issue)),
		g.Group(sections),
		issueNav(issue, current),
	)
}

// issueNav links every published issue. The one on display is plain text so
// members can see where they are.
func issueNav(issue, current int) g.Node {
	if current < 2 {
		return nil
	}
	links := make([]g.Node, 0, current)
	for n := 1; n <= current; n++ {
		if n == issue {
			links = append(links, Span(Class("current"), g.Textf("#%d", n)))
			continue
		}
		links = append(links, A(Href(fmt.Sprintf("/issue/%d", n)), g.Textf("#%d", n)))
	}
	return Nav(Class("issues"),
		P(g.Text("Past issues")),
		g.Group(links),
	)
}

// Message is a minimal confirmation page shown after a submission.
func Message(title, text string) g.Node {
	return Layout(title, P(g.Text(text)))
}

func answerNode(a *store.Answer) g.Node {
	var body g.Node
	switch {
	case a.ImagePath != nil:
		body = Img(Src("/"+strings.TrimPrefix(*a.ImagePath, "/")), Alt(fmt.Sprintf("photo from %s", a.Name)))
	case a.Text != nil:
		body = multiline(*a.Text)
	default:
		body = g.Text("")
	}
	return Div(Class("answer"),
		H3(g.Text(titleCaser.String(a.Name))),
		body,
	)
}

// questionLabel renders the prompt text. Seeded questions carry no visible
// author; member questions lead with the asker's name.
func questionLabel(q *store.Question) g.Node {
	if q.Base || q.Creator == store.SystemCreator {
		return g.Text(q.Text)
	}
	return g.Textf("%s asks: %s", titleCaser.String(q.Creator), q.Text)
}

func answerKey(q *store.Question) string {
	if q.Type == store.TypeImage {
		return fmt.Sprintf("image_%d", q.ID)
	}
	return fmt.Sprintf("question_%d", q.ID)
}

// multiline splits text on newlines so submitted paragraphs survive HTML
// rendering.
func multiline(text string) g.Node {
	lines := strings.Split(text, "\n")
	nodes := make([]g.Node, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		nodes = append(nodes, P(g.Text(line)))
	}
	return g.Group(nodes)
}
