package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	yt "github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"videoquiz-backend/internal/pipeline"
)

const maxAudioBytes = 200 * 1024 * 1024

// NativeAudioExtractor downloads audio in-process with kkdai/youtube.
type NativeAudioExtractor struct {
	transport http.RoundTripper
	log       *zap.Logger
}

func NewNativeAudioExtractor(log *zap.Logger) *NativeAudioExtractor {
	return &NativeAudioExtractor{transport: http.DefaultTransport, log: log}
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	}
	return t.base.RoundTrip(req)
}

// ExtractAudio writes the highest-bitrate audio stream to destDir/audio.<ext>.
func (e *NativeAudioExtractor) ExtractAudio(ctx context.Context, canonicalURL, destDir string, opts pipeline.AudioOptions) (string, error) {
	client := &yt.Client{HTTPClient: &http.Client{
		Transport: &userAgentTransport{userAgent: opts.UserAgent, base: e.transport},
	}}

	video, err := client.GetVideoContext(ctx, canonicalURL)
	if err != nil {
		return "", e.fail("failed to fetch YouTube video metadata", canonicalURL, err)
	}

	format, ok := pickAudioFormat(video.Formats)
	if !ok {
		return "", fmt.Errorf("no audio formats available")
	}

	stream, _, err := client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", e.fail("failed to open audio stream", canonicalURL, err)
	}
	defer stream.Close()

	path := filepath.Join(destDir, "audio"+extensionForMIME(format.MimeType))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(stream, maxAudioBytes+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to read audio stream: %w", err)
	}
	if n > maxAudioBytes {
		return "", fmt.Errorf("audio stream exceeds %d MB limit", maxAudioBytes/(1024*1024))
	}

	e.log.Debug("audio stream saved",
		zap.String("mime_type", format.MimeType),
		zap.Int("bitrate", format.Bitrate),
		zap.Int64("bytes", n),
	)
	return path, nil
}

// pickAudioFormat prefers audio-only formats and takes the best bitrate.
func pickAudioFormat(formats yt.FormatList) (*yt.Format, bool) {
	withAudio := formats.WithAudioChannels()
	if len(withAudio) == 0 {
		return nil, false
	}

	var audioOnly yt.FormatList
	for _, f := range withAudio {
		if strings.HasPrefix(f.MimeType, "audio/") {
			audioOnly = append(audioOnly, f)
		}
	}
	candidates := withAudio
	if len(audioOnly) > 0 {
		candidates = audioOnly
	}

	best := candidates[0]
	for _, f := range candidates {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return &best, true
}

func extensionForMIME(mimeType string) string {
	base := strings.TrimSpace(strings.Split(mimeType, ";")[0])
	switch {
	case strings.HasSuffix(base, "/webm"):
		return ".webm"
	case base == "audio/mpeg":
		return ".mp3"
	case strings.HasSuffix(base, "/ogg"):
		return ".ogg"
	default:
		return ".m4a"
	}
}

// fail classifies err and logs platform denials the same way the yt-dlp
// extractor does.
func (e *NativeAudioExtractor) fail(msg, canonicalURL string, err error) error {
	classified := classifyYouTubeError(msg, err)
	if errors.Is(classified, pipeline.ErrAccessDenied) {
		e.log.Warn("YouTube denied audio download",
			zap.String("url", canonicalURL),
			zap.Error(err),
			zap.Bool("access_denied", true),
		)
	}
	return classified
}

func classifyYouTubeError(msg string, err error) error {
	var status yt.ErrUnexpectedStatusCode
	if errors.Is(err, yt.ErrLoginRequired) ||
		errors.Is(err, yt.ErrVideoPrivate) ||
		(errors.As(err, &status) && int(status) == http.StatusForbidden) {
		return fmt.Errorf("%s: %w: %w", msg, pipeline.ErrAccessDenied, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
