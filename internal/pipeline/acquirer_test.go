package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRef = CanonicalReference{ContentID: "abc", CanonicalURL: "https://www.youtube.com/watch?v=abc"}

func newTestAcquirer(t *testing.T, ex AudioExtractor, tr Transcriber) (*Acquirer, string) {
	t.Helper()
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.TempDir = root
	cfg.Audio.CookiesFromBrowser = "firefox"
	return NewAcquirer(ex, tr, cfg, nil), root
}

func assertNoLeftovers(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "working directory was not removed")
}

func TestAcquirer_Acquire(t *testing.T) {
	ex := &fakeExtractor{files: []string{"audio.m4a", "audio.info.json"}}
	tr := &fakeTranscriber{text: "  hello world \n"}
	acq, root := newTestAcquirer(t, ex, tr)

	got, err := acq.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Text)

	assert.Equal(t, testRef.CanonicalURL, ex.gotURL)
	assert.Equal(t, filepath.Join(ex.gotDir, "audio.m4a"), tr.gotPath)
	assert.Equal(t, DefaultUserAgent, ex.gotOpts.UserAgent)
	assert.Equal(t, "firefox", ex.gotOpts.CookiesFromBrowser)
	assertNoLeftovers(t, root)
}

func TestAcquirer_AcceptsOtherAudioFormats(t *testing.T) {
	ex := &fakeExtractor{files: []string{"audio.WEBM"}}
	tr := &fakeTranscriber{text: "ok"}
	acq, _ := newTestAcquirer(t, ex, tr)

	_, err := acq.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, "audio.WEBM", filepath.Base(tr.gotPath))
}

func TestAcquirer_Failures(t *testing.T) {
	tests := []struct {
		name     string
		ex       *fakeExtractor
		tr       *fakeTranscriber
		wantKind ErrorKind
	}{
		{
			name:     "extractor error",
			ex:       &fakeExtractor{err: errors.New("network down")},
			tr:       &fakeTranscriber{text: "unused"},
			wantKind: KindAcquisitionFailed,
		},
		{
			name:     "no audio produced",
			ex:       &fakeExtractor{files: []string{"notes.txt"}},
			tr:       &fakeTranscriber{text: "unused"},
			wantKind: KindAcquisitionFailed,
		},
		{
			name:     "ambiguous audio",
			ex:       &fakeExtractor{files: []string{"audio.m4a", "audio.webm"}},
			tr:       &fakeTranscriber{text: "unused"},
			wantKind: KindAcquisitionFailed,
		},
		{
			name:     "transcriber error",
			ex:       &fakeExtractor{files: []string{"audio.m4a"}},
			tr:       &fakeTranscriber{err: errors.New("model overloaded")},
			wantKind: KindTranscriptionFailed,
		},
		{
			name:     "empty transcript",
			ex:       &fakeExtractor{files: []string{"audio.m4a"}},
			tr:       &fakeTranscriber{text: " \n\t "},
			wantKind: KindTranscriptionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acq, root := newTestAcquirer(t, tt.ex, tt.tr)

			_, err := acq.Acquire(context.Background(), testRef)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.wantKind), "got %v", err)
			assertNoLeftovers(t, root)
		})
	}
}

func TestAcquirer_AccessDenied(t *testing.T) {
	ex := &fakeExtractor{err: fmt.Errorf("yt-dlp: HTTP Error 403: %w", ErrAccessDenied)}
	acq, _ := newTestAcquirer(t, ex, &fakeTranscriber{})

	_, err := acq.Acquire(context.Background(), testRef)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindAcquisitionFailed))
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Contains(t, err.(*Error).Message, "blocked")
}

func TestAcquirer_TempDirUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TempDir = filepath.Join(t.TempDir(), "missing", "dir")
	acq := NewAcquirer(&fakeExtractor{}, &fakeTranscriber{}, cfg, nil)

	_, err := acq.Acquire(context.Background(), testRef)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindAcquisitionFailed))
}
