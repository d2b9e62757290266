package pipeline

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are a quiz generator. Create multiple-choice questions from the given transcript.
Rules:
- Return STRICT JSON only, no prose, no code fences.
- JSON schema:
{ "title": string, "description": string, "questions": [ { "question_title": string, "question_options": [string, string, string, string], "answer": string } ] }
- Produce %d questions.
- Options must be concise; one correct answer, three plausible distractors.
- Keep the language of the transcript.
title_hint: "%s"
transcript:
"""%s"""
`

// PromptBuilder renders generation prompts. It is pure: equal inputs give
// identical output.
type PromptBuilder struct {
	maxChars      int
	questionCount int
}

func NewPromptBuilder(cfg Config) PromptBuilder {
	cfg = cfg.withDefaults()
	return PromptBuilder{maxChars: cfg.MaxTranscriptChars, questionCount: cfg.QuestionCount}
}

// Build embeds at most maxChars characters of the transcript together with
// the title hint and the output schema.
func (b PromptBuilder) Build(t Transcript, titleHint string) GenerationPrompt {
	return GenerationPrompt{
		RenderedText: fmt.Sprintf(promptTemplate, b.questionCount, titleHint, truncateRunes(t.Text, b.maxChars)),
	}
}

// TitleHint is the hint used when only the content id is known.
func TitleHint(ref CanonicalReference) string {
	return "YouTube Video " + ref.ContentID
}

func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count == n {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
