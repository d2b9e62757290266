package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

type fakeBackend struct {
	mu      sync.Mutex
	models  []ModelInfo
	listErr error
	reply   string
	genErr  error
	calls   []string
	prompts []string
}

func (f *fakeBackend) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return f.models, f.listErr
}

func (f *fakeBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, model)
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.genErr
}

// fakeExtractor writes one file per name into destDir.
type fakeExtractor struct {
	files   []string
	err     error
	gotURL  string
	gotDir  string
	gotOpts AudioOptions
}

func (f *fakeExtractor) ExtractAudio(ctx context.Context, canonicalURL, destDir string, opts AudioOptions) (string, error) {
	f.gotURL, f.gotDir, f.gotOpts = canonicalURL, destDir, opts
	if f.err != nil {
		return "", f.err
	}
	var last string
	for _, name := range f.files {
		last = filepath.Join(destDir, name)
		if err := os.WriteFile(last, []byte("audio"), 0o600); err != nil {
			return "", err
		}
	}
	return last, nil
}

type fakeTranscriber struct {
	text    string
	err     error
	gotPath string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.gotPath = audioPath
	return f.text, f.err
}
