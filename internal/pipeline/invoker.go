package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GenerateContentOperation is the capability a model must advertise to be
// eligible for selection.
const GenerateContentOperation = "generateContent"

// FallbackModel is used when the model catalog cannot be listed.
const FallbackModel = "gemini-flash-latest"

// PreferredModels is the default selection order.
var PreferredModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-flash-latest",
	"gemini-pro-latest",
	"gemini-2.5-pro",
	"gemini-2.0-pro",
}

var (
	leadingFence  = regexp.MustCompile("(?i)^```[a-z0-9_+-]*\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// ModelInfo describes one entry of the backend's model catalog. Name carries
// no namespace prefix.
type ModelInfo struct {
	Name                string
	SupportedOperations []string
}

func (m ModelInfo) Supports(op string) bool {
	return contains(m.SupportedOperations, op)
}

type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

type ContentGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// GenerationBackend is the full capability set the invoker needs.
type GenerationBackend interface {
	ModelLister
	ContentGenerator
}

// ModelSelector picks the model for one invocation.
type ModelSelector interface {
	SelectModel(ctx context.Context) (string, error)
}

type ModelSelectorFunc func(ctx context.Context) (string, error)

func (f ModelSelectorFunc) SelectModel(ctx context.Context) (string, error) {
	return f(ctx)
}

// PinnedModel always selects name.
func PinnedModel(name string) ModelSelector {
	return ModelSelectorFunc(func(context.Context) (string, error) {
		return name, nil
	})
}

// CatalogSelector picks the first preferred model advertised with
// generateContent, then any model that supports it. When listing fails it
// returns Fallback.
type CatalogSelector struct {
	Lister    ModelLister
	Preferred []string
	Fallback  string
	Timeout   time.Duration
	Log       *zap.Logger
}

func (s *CatalogSelector) SelectModel(ctx context.Context) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	models, err := s.Lister.ListModels(ctx)
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("model listing failed, using fallback", zap.String("model", s.Fallback), zap.Error(err))
		}
		return s.Fallback, nil
	}

	var supported []string
	for _, m := range models {
		if m.Supports(GenerateContentOperation) {
			supported = append(supported, m.Name)
		}
	}
	for _, p := range s.Preferred {
		if contains(supported, p) {
			return p, nil
		}
	}
	if len(supported) > 0 {
		return supported[0], nil
	}
	return "", newError(KindGenerationUnavailable, "No compatible AI model is available.", nil)
}

// NewModelSelector pins cfg.Model when set and otherwise selects from the
// backend catalog.
func NewModelSelector(cfg Config, lister ModelLister, log *zap.Logger) ModelSelector {
	cfg = cfg.withDefaults()
	if cfg.Model != "" {
		return PinnedModel(cfg.Model)
	}
	return &CatalogSelector{
		Lister:    lister,
		Preferred: PreferredModels,
		Fallback:  FallbackModel,
		Timeout:   cfg.CallTimeout,
		Log:       log,
	}
}

// Invoker sends prompts to the generative backend.
type Invoker struct {
	generator ContentGenerator
	selector  ModelSelector
	timeout   time.Duration
	log       *zap.Logger
}

func NewInvoker(generator ContentGenerator, selector ModelSelector, cfg Config, log *zap.Logger) *Invoker {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{generator: generator, selector: selector, timeout: cfg.CallTimeout, log: log}
}

// Invoke runs one generation call and strips any code fence around the reply.
func (inv *Invoker) Invoke(ctx context.Context, prompt GenerationPrompt) (RawGenerationOutput, error) {
	model, err := inv.selector.SelectModel(ctx)
	if err != nil {
		if _, ok := KindOf(err); ok {
			return RawGenerationOutput{}, err
		}
		return RawGenerationOutput{}, newError(KindGenerationUnavailable, "No compatible AI model is available.", err)
	}
	if model == "" {
		return RawGenerationOutput{}, newError(KindGenerationUnavailable, "No compatible AI model is available.", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	start := time.Now()
	text, err := inv.generator.Generate(ctx, model, prompt.RenderedText)
	if err != nil {
		inv.log.Error("generation call failed", zap.String("model", model), zap.Error(err))
		return RawGenerationOutput{}, newError(KindGenerationUnavailable, "The AI service is unavailable. Please try again later.", err)
	}
	inv.log.Debug("generation call finished",
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_chars", len(text)),
	)

	return RawGenerationOutput{Text: StripCodeFence(text)}, nil
}

// StripCodeFence removes a leading ```lang line and a trailing ``` from text.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
