package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Generator runs the full pipeline: resolve, acquire, prompt, invoke, parse,
// normalize. Stages run strictly in that order and the first failure stops
// the run.
type Generator struct {
	acquirer *Acquirer
	prompts  PromptBuilder
	invoker  *Invoker
	log      *zap.Logger
}

func NewGenerator(acquirer *Acquirer, prompts PromptBuilder, invoker *Invoker, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{acquirer: acquirer, prompts: prompts, invoker: invoker, log: log}
}

// GenerateQuiz returns the quiz and the canonical reference it was built from.
func (g *Generator) GenerateQuiz(ctx context.Context, rawURL string) (*Quiz, *CanonicalReference, error) {
	ref, err := Resolve(rawURL)
	if err != nil {
		return nil, nil, err
	}
	log := g.log.With(zap.String("content_id", ref.ContentID))
	start := time.Now()

	transcript, err := g.acquirer.Acquire(ctx, ref)
	if err != nil {
		log.Warn("transcript acquisition failed", zap.Error(err))
		return nil, nil, err
	}

	prompt := g.prompts.Build(transcript, TitleHint(ref))

	raw, err := g.invoker.Invoke(ctx, prompt)
	if err != nil {
		log.Warn("generation failed", zap.Error(err))
		return nil, nil, err
	}

	draft, err := Parse(raw)
	if err != nil {
		log.Warn("generation output rejected", zap.Error(err))
		return nil, nil, err
	}

	quiz := Normalize(draft)
	log.Info("quiz generated",
		zap.Int("questions", len(quiz.Questions)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &quiz, &ref, nil
}
