package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"videoquiz-backend/internal/pipeline"
)

// Browsers yt-dlp may read cookies from. Other values are ignored.
var cookieBrowsers = map[string]bool{"chrome": true, "edge": true, "firefox": true}

var accessDeniedMarkers = []string{
	"HTTP Error 403",
	"Sign in to confirm",
	"Private video",
	"This video is available to this channel's members",
}

// commandRunner executes name with args and returns its stderr.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// YtDlpExtractor shells out to yt-dlp and converts the result to m4a.
type YtDlpExtractor struct {
	binary string
	run    commandRunner
	log    *zap.Logger
}

func NewYtDlpExtractor(binary string, log *zap.Logger) *YtDlpExtractor {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlpExtractor{binary: binary, run: execRunner, log: log}
}

func (e *YtDlpExtractor) ExtractAudio(ctx context.Context, canonicalURL, destDir string, opts pipeline.AudioOptions) (string, error) {
	args := ytDlpArgs(canonicalURL, destDir, opts)

	stderr, err := e.run(ctx, e.binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("yt-dlp interrupted: %w", ctx.Err())
		}
		msg := lastLine(stderr)
		if isAccessDenied(stderr) {
			e.log.Warn("YouTube denied audio download", zap.String("url", canonicalURL), zap.String("stderr", msg), zap.Bool("access_denied", true))
			return "", fmt.Errorf("yt-dlp: %s: %w", msg, pipeline.ErrAccessDenied)
		}
		return "", fmt.Errorf("yt-dlp failed (%v): %s", err, msg)
	}

	matches, _ := filepath.Glob(filepath.Join(destDir, "audio.m4a"))
	if len(matches) == 0 {
		return "", fmt.Errorf("yt-dlp finished without writing audio.m4a")
	}
	return matches[0], nil
}

func ytDlpArgs(canonicalURL, destDir string, opts pipeline.AudioOptions) []string {
	args := []string{
		"-f", "bestaudio/best",
		"-o", filepath.Join(destDir, "audio.%(ext)s"),
		"--no-playlist",
		"--quiet",
		"--no-progress",
		"--concurrent-fragments", "1",
		"--geo-bypass",
		"--no-check-certificates",
		"--user-agent", opts.UserAgent,
		"--add-header", "Accept:*/*",
		"--add-header", "Accept-Language:en-US,en;q=0.8",
		"--referer", "https://www.youtube.com/",
		"-x", "--audio-format", "m4a", "--audio-quality", "192K",
	}
	if browser := strings.ToLower(strings.TrimSpace(opts.CookiesFromBrowser)); cookieBrowsers[browser] {
		args = append(args, "--cookies-from-browser", browser)
	}
	return append(args, canonicalURL)
}

func isAccessDenied(stderr []byte) bool {
	for _, m := range accessDeniedMarkers {
		if bytes.Contains(stderr, []byte(m)) {
			return true
		}
	}
	return false
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
