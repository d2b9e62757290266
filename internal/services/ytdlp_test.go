package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"videoquiz-backend/internal/pipeline"
)

func TestYtDlpArgs(t *testing.T) {
	args := ytDlpArgs("https://www.youtube.com/watch?v=abc", "/tmp/work", pipeline.AudioOptions{UserAgent: "UA/1.0"})

	assert.Equal(t, "https://www.youtube.com/watch?v=abc", args[len(args)-1])
	assert.Subset(t, args, []string{
		"-f", "bestaudio/best",
		"--no-playlist", "--geo-bypass", "--no-check-certificates",
		"--concurrent-fragments", "1",
		"--user-agent", "UA/1.0",
		"--referer", "https://www.youtube.com/",
		"-x", "--audio-format", "m4a", "--audio-quality", "192K",
	})
	assert.Contains(t, args, filepath.Join("/tmp/work", "audio.%(ext)s"))
	assert.NotContains(t, args, "--cookies-from-browser")
}

func TestYtDlpArgs_Cookies(t *testing.T) {
	tests := []struct {
		browser string
		want    string
	}{
		{"chrome", "chrome"},
		{" Firefox ", "firefox"},
		{"EDGE", "edge"},
		{"safari", ""},
		{"", ""},
	}
	for _, tt := range tests {
		args := ytDlpArgs("u", "d", pipeline.AudioOptions{CookiesFromBrowser: tt.browser})
		if tt.want == "" {
			assert.NotContains(t, args, "--cookies-from-browser", tt.browser)
			continue
		}
		idx := indexOf(args, "--cookies-from-browser")
		require.GreaterOrEqual(t, idx, 0, tt.browser)
		assert.Equal(t, tt.want, args[idx+1])
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestYtDlpExtractor_Success(t *testing.T) {
	dir := t.TempDir()
	e := NewYtDlpExtractor("", zap.NewNop())
	var gotName string
	e.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		return nil, os.WriteFile(filepath.Join(dir, "audio.m4a"), []byte("x"), 0o600)
	}

	path, err := e.ExtractAudio(context.Background(), "u", dir, pipeline.AudioOptions{})
	require.NoError(t, err)
	assert.Equal(t, "yt-dlp", gotName)
	assert.Equal(t, filepath.Join(dir, "audio.m4a"), path)
}

func TestYtDlpExtractor_Failures(t *testing.T) {
	tests := []struct {
		name       string
		stderr     string
		runErr     error
		wantDenied bool
	}{
		{"forbidden", "WARNING: x\nERROR: unable to download video data: HTTP Error 403: Forbidden", errors.New("exit status 1"), true},
		{"sign in wall", "ERROR: [youtube] abc: Sign in to confirm you're not a bot", errors.New("exit status 1"), true},
		{"generic", "ERROR: Unsupported URL", errors.New("exit status 1"), false},
		{"no output file", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewYtDlpExtractor("/usr/bin/yt-dlp", zap.NewNop())
			e.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte(tt.stderr), tt.runErr
			}

			_, err := e.ExtractAudio(context.Background(), "u", t.TempDir(), pipeline.AudioOptions{})
			require.Error(t, err)
			assert.Equal(t, tt.wantDenied, errors.Is(err, pipeline.ErrAccessDenied))
		})
	}
}

func TestYtDlpExtractor_Cancelled(t *testing.T) {
	e := NewYtDlpExtractor("", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	e.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cancel()
		return []byte("HTTP Error 403"), errors.New("signal: killed")
	}

	_, err := e.ExtractAudio(ctx, "u", t.TempDir(), pipeline.AudioOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, pipeline.ErrAccessDenied))
}
