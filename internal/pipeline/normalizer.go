package pipeline

import "strings"

const (
	DefaultTitle       = "Quiz Title"
	DefaultDescription = "Quiz Description"

	optionsPerQuestion = 4
)

// FallbackQuestion is emitted when a draft yields no usable question.
func FallbackQuestion() Question {
	return Question{
		QuestionTitle:   "What is the main topic of the video?",
		QuestionOptions: []string{"Topic A", "Topic B", "Topic C", "Topic D"},
		Answer:          "Topic A",
	}
}

// Normalize repairs a draft into a Quiz that always has a non-empty title and
// description, at least one question, exactly four options per question, and
// an answer that is one of those options.
func Normalize(draft QuizDraft) Quiz {
	quiz := Quiz{
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
	}
	if quiz.Title == "" {
		quiz.Title = DefaultTitle
	}
	if quiz.Description == "" {
		quiz.Description = DefaultDescription
	}

	for _, qd := range draft.Questions {
		q, ok := normalizeQuestion(qd)
		if !ok {
			continue
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if len(quiz.Questions) == 0 {
		quiz.Questions = []Question{FallbackQuestion()}
	}
	return quiz
}

func normalizeQuestion(qd QuestionDraft) (Question, bool) {
	title := strings.TrimSpace(qd.QuestionTitle)
	if title == "" {
		return Question{}, false
	}

	opts := make([]string, 0, optionsPerQuestion)
	for _, o := range qd.QuestionOptions {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	opts = padOptions(opts)

	answer := strings.TrimSpace(qd.Answer)
	if len(opts) > optionsPerQuestion {
		opts = capOptions(opts, answer)
	}
	// Capping drops repeated answers and can leave fewer than four.
	opts = padOptions(opts)
	if !contains(opts, answer) {
		answer = opts[0]
	}

	return Question{QuestionTitle: title, QuestionOptions: opts, Answer: answer}, true
}

// capOptions keeps the answer first when it is present, followed by the
// other options in their original order.
func capOptions(opts []string, answer string) []string {
	if !contains(opts, answer) {
		return opts[:optionsPerQuestion]
	}
	kept := []string{answer}
	for _, o := range opts {
		if len(kept) == optionsPerQuestion {
			break
		}
		if o != answer {
			kept = append(kept, o)
		}
	}
	return kept
}

func padOptions(opts []string) []string {
	for len(opts) < optionsPerQuestion {
		opts = append(opts, placeholderOption(len(opts)))
	}
	return opts
}

func placeholderOption(i int) string {
	return "Option " + string(rune('A'+i))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
