package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AudioExtensions lists the file extensions the acquirer treats as
// extracted audio inside its working directory.
var AudioExtensions = []string{".m4a", ".mp3", ".webm", ".opus", ".ogg", ".wav", ".aac", ".flac"}

// AudioExtractor downloads the audio track of canonicalURL into destDir and
// returns the path of the written file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, canonicalURL, destDir string, opts AudioOptions) (string, error)
}

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Acquirer produces a transcript for a canonical reference. Every run uses a
// fresh scratch directory that is removed before Acquire returns.
type Acquirer struct {
	extractor   AudioExtractor
	transcriber Transcriber
	cfg         Config
	log         *zap.Logger
}

func NewAcquirer(extractor AudioExtractor, transcriber Transcriber, cfg Config, log *zap.Logger) *Acquirer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Acquirer{extractor: extractor, transcriber: transcriber, cfg: cfg.withDefaults(), log: log}
}

func (a *Acquirer) Acquire(ctx context.Context, ref CanonicalReference) (Transcript, error) {
	workDir, err := os.MkdirTemp(a.cfg.TempDir, "quiz-audio-*")
	if err != nil {
		return Transcript{}, newError(KindAcquisitionFailed, "Could not prepare audio workspace.", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			a.log.Warn("failed to remove audio workspace", zap.String("dir", workDir), zap.Error(err))
		}
	}()

	audioPath, err := a.extract(ctx, ref, workDir)
	if err != nil {
		return Transcript{}, err
	}

	tctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	start := time.Now()
	text, err := a.transcriber.Transcribe(tctx, audioPath)
	if err != nil {
		return Transcript{}, newError(KindTranscriptionFailed, "Transcription failed.", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Transcript{}, newError(KindTranscriptionFailed, "Transcription returned no text.", nil)
	}

	a.log.Info("transcript acquired",
		zap.String("content_id", ref.ContentID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)),
	)
	return Transcript{Text: text}, nil
}

func (a *Acquirer) extract(ctx context.Context, ref CanonicalReference, workDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	if _, err := a.extractor.ExtractAudio(ctx, ref.CanonicalURL, workDir, a.cfg.Audio); err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return "", newError(KindAcquisitionFailed, "YouTube blocked the audio download for this video.", err)
		}
		return "", newError(KindAcquisitionFailed, "Audio download failed.", err)
	}

	// The extractor's returned path is not trusted; the directory is the
	// source of truth.
	candidates, err := audioFiles(workDir)
	if err != nil {
		return "", newError(KindAcquisitionFailed, "Audio download failed.", err)
	}
	switch len(candidates) {
	case 0:
		return "", newError(KindAcquisitionFailed, "No audio file was produced.", nil)
	case 1:
		return candidates[0], nil
	default:
		return "", newError(KindAcquisitionFailed, "Audio extraction produced more than one file.", nil)
	}
}

func audioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if contains(AudioExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
