package pipeline

import "time"

// CanonicalReference identifies a single playable video.
type CanonicalReference struct {
	ContentID    string
	CanonicalURL string
}

// Transcript is the plain text of a video's audio track. Never empty.
type Transcript struct {
	Text string
}

// GenerationPrompt is the rendered instruction sent to the generative backend.
type GenerationPrompt struct {
	RenderedText string
}

// RawGenerationOutput is the untrusted text returned by the generative backend.
type RawGenerationOutput struct {
	Text string
}

// QuizDraft is a structurally parsed but unvalidated quiz. Fields hold
// whatever the backend sent, coerced to strings; nothing is guaranteed.
type QuizDraft struct {
	Title       string
	Description string
	Questions   []QuestionDraft
}

type QuestionDraft struct {
	QuestionTitle   string
	QuestionOptions []string
	Answer          string
}

// Quiz is the normalized pipeline output. See Normalize for the guarantees.
type Quiz struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	QuestionTitle   string   `json:"question_title"`
	QuestionOptions []string `json:"question_options"`
	Answer          string   `json:"answer"`
}

// AudioOptions are passed through to the audio extractor.
type AudioOptions struct {
	UserAgent          string
	CookiesFromBrowser string
}

const (
	DefaultCallTimeout        = 5 * time.Minute
	DefaultMaxTranscriptChars = 12000
	DefaultQuestionCount      = 10
	DefaultUserAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Config holds the recognised pipeline options. Zero fields fall back to the
// defaults above via withDefaults.
type Config struct {
	// CallTimeout bounds every collaborator call (extraction, transcription,
	// model listing, generation).
	CallTimeout time.Duration
	// MaxTranscriptChars is the number of transcript characters embedded in the prompt.
	MaxTranscriptChars int
	// QuestionCount is the number of questions requested from the backend.
	QuestionCount int
	// Model pins the generation model. Empty enables auto-selection.
	Model string
	Audio AudioOptions
	// TempDir is the parent of per-run working directories. Empty uses os.TempDir.
	TempDir string
}

// DefaultConfig returns a Config with every option at its documented default.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.MaxTranscriptChars <= 0 {
		c.MaxTranscriptChars = DefaultMaxTranscriptChars
	}
	if c.QuestionCount <= 0 {
		c.QuestionCount = DefaultQuestionCount
	}
	if c.Audio.UserAgent == "" {
		c.Audio.UserAgent = DefaultUserAgent
	}
	return c
}
