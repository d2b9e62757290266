package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestToModelInfo(t *testing.T) {
	m := toModelInfo(&genai.ModelInfo{
		Name:                       "models/gemini-2.5-flash",
		SupportedGenerationMethods: []string{"generateContent", "countTokens"},
	})

	assert.Equal(t, "gemini-2.5-flash", m.Name)
	assert.True(t, m.Supports("generateContent"))

	assert.Equal(t, "bare", toModelInfo(&genai.ModelInfo{Name: "bare"}).Name)
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "audio/mp4", mimeTypeFor("/tmp/a/audio.m4a"))
	assert.Equal(t, "audio/webm", mimeTypeFor("audio.WEBM"))
	assert.Equal(t, "audio/mpeg", mimeTypeFor("x.mp3"))
	assert.Equal(t, "audio/mp4", mimeTypeFor("x.unknown"))
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":`), genai.Text(` "T"}`)}}},
			{Content: nil},
		},
	}
	assert.Equal(t, `{"title": "T"}`, extractText(resp))
	assert.Empty(t, extractText(&genai.GenerateContentResponse{}))
}

type fakeFiles struct {
	states []genai.FileState
	calls  int
	err    error
}

func (f *fakeFiles) GetFile(ctx context.Context, name string) (*genai.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state := f.states[len(f.states)-1]
	if f.calls < len(f.states) {
		state = f.states[f.calls]
	}
	f.calls++
	return &genai.File{Name: name, URI: "https://files/" + name, State: state}, nil
}

func newPollingService(files fileGetter) *GeminiService {
	return &GeminiService{files: files, log: zap.NewNop(), pollInterval: time.Millisecond, pollAttempts: 3}
}

func TestWaitActive(t *testing.T) {
	upload := &genai.File{Name: "files/audio"}

	t.Run("becomes active", func(t *testing.T) {
		files := &fakeFiles{states: []genai.FileState{genai.FileStateProcessing, genai.FileStateActive}}
		got, err := newPollingService(files).waitActive(context.Background(), upload)
		require.NoError(t, err)
		assert.Equal(t, "https://files/files/audio", got.URI)
		assert.Equal(t, 2, files.calls)
	})

	t.Run("never active", func(t *testing.T) {
		files := &fakeFiles{states: []genai.FileState{genai.FileStateProcessing}}
		_, err := newPollingService(files).waitActive(context.Background(), upload)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did not become active in time")
		assert.Equal(t, 3, files.calls)
	})

	t.Run("processing failed", func(t *testing.T) {
		files := &fakeFiles{states: []genai.FileState{genai.FileStateFailed}}
		_, err := newPollingService(files).waitActive(context.Background(), upload)
		require.Error(t, err)
		assert.Equal(t, 1, files.calls)
	})

	t.Run("status error", func(t *testing.T) {
		files := &fakeFiles{err: errors.New("quota exceeded")}
		_, err := newPollingService(files).waitActive(context.Background(), upload)
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		files := &fakeFiles{states: []genai.FileState{genai.FileStateProcessing}}
		_, err := newPollingService(files).waitActive(ctx, upload)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
