package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Parse decodes raw backend text into a draft. A strict decode is tried first;
// if that fails the text is trimmed and decoded again when it looks like a
// bare object. Anything else is KindMalformedGenerationOutput.
func Parse(raw RawGenerationOutput) (QuizDraft, error) {
	obj, err := decodeObject(raw.Text)
	if err != nil {
		trimmed := strings.TrimSpace(raw.Text)
		if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
			return QuizDraft{}, newError(KindMalformedGenerationOutput, "AI response was not valid JSON.", err)
		}
		obj, err = decodeObject(trimmed)
		if err != nil {
			return QuizDraft{}, newError(KindMalformedGenerationOutput, "AI response was not valid JSON.", err)
		}
	}
	return draftFromObject(obj), nil
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value is %T, want object", v)
	}
	return obj, nil
}

func draftFromObject(obj map[string]any) QuizDraft {
	draft := QuizDraft{
		Title:       coerceString(obj["title"]),
		Description: coerceString(obj["description"]),
	}
	items, _ := obj["questions"].([]any)
	for _, item := range items {
		q, ok := item.(map[string]any)
		if !ok {
			// Kept as an empty draft so the normalizer drops it.
			draft.Questions = append(draft.Questions, QuestionDraft{})
			continue
		}
		qd := QuestionDraft{
			QuestionTitle: coerceString(q["question_title"]),
			Answer:        coerceString(q["answer"]),
		}
		opts, _ := q["question_options"].([]any)
		for _, o := range opts {
			if o == nil {
				continue
			}
			qd.QuestionOptions = append(qd.QuestionOptions, coerceString(o))
		}
		draft.Questions = append(draft.Questions, qd)
	}
	return draft
}

// coerceString renders scalar JSON values as text. Nested values are
// re-encoded as compact JSON.
func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return fmt.Sprint(t)
		}
		return strings.TrimSpace(buf.String())
	}
}
