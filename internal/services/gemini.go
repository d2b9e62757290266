package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"videoquiz-backend/internal/pipeline"
)

const transcriptionPrompt = "Transcribe the provided audio verbatim. Return plain text only, without markdown, headers, or explanations."

// audioMIMETypes maps extracted file extensions to upload MIME types.
var audioMIMETypes = map[string]string{
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".webm": "audio/webm",
	".opus": "audio/ogg",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
	".aac":  "audio/aac",
	".flac": "audio/flac",
}

// fileGetter reads the processing state of an uploaded file.
type fileGetter interface {
	GetFile(ctx context.Context, name string) (*genai.File, error)
}

// GeminiService is the generative backend. It lists models, generates quiz
// text, and transcribes audio through the File API.
type GeminiService struct {
	client             *genai.Client
	files              fileGetter
	transcriptionModel string
	log                *zap.Logger
	rateChan           chan struct{} // Token bucket
	pollInterval       time.Duration
	pollAttempts       int
}

func NewGeminiService(ctx context.Context, apiKey, transcriptionModel string, concurrentReqs int, log *zap.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:             client,
		files:              client,
		transcriptionModel: transcriptionModel,
		log:                log,
		rateChan:           rateChan,
		pollInterval:       2 * time.Second,
		pollAttempts:       30,
	}, nil
}

func (s *GeminiService) Close() error {
	return s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// ListModels returns the catalog with the "models/" prefix removed.
func (s *GeminiService) ListModels(ctx context.Context) ([]pipeline.ModelInfo, error) {
	var out []pipeline.ModelInfo
	it := s.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list Gemini models: %w", err)
		}
		out = append(out, toModelInfo(m))
	}
	return out, nil
}

func toModelInfo(m *genai.ModelInfo) pipeline.ModelInfo {
	name := m.Name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return pipeline.ModelInfo{Name: name, SupportedOperations: m.SupportedGenerationMethods}
}

// Generate sends a single text prompt to model and returns the concatenated text parts.
func (s *GeminiService) Generate(ctx context.Context, model, prompt string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	gm := s.client.GenerativeModel(model)
	gm.SetTemperature(0.3)
	gm.SetTopP(0.95)

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			s.log.Warn("Gemini candidate did not finish cleanly",
				zap.Int("candidate", i),
				zap.Any("finish_reason", cand.FinishReason),
			)
		}
	}
	return extractText(resp), nil
}

// Transcribe uploads the audio file, waits for it to become active, and asks
// the transcription model for a verbatim transcript.
func (s *GeminiService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	mimeType := mimeTypeFor(audioPath)
	file, err := s.client.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		DisplayName: "youtube-audio",
		MIMEType:    mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio to Gemini: %w", err)
	}

	// Ensure remote file is cleaned up
	defer func() {
		if err := s.client.DeleteFile(context.Background(), file.Name); err != nil {
			s.log.Warn("failed to delete uploaded audio", zap.String("file", file.Name), zap.Error(err))
		}
	}()

	file, err = s.waitActive(ctx, file)
	if err != nil {
		return "", err
	}

	resp, err := s.client.GenerativeModel(s.transcriptionModel).GenerateContent(ctx,
		genai.Text(transcriptionPrompt),
		genai.FileData{MIMEType: mimeType, URI: file.URI},
	)
	if err != nil {
		return "", fmt.Errorf("Gemini transcription error: %w", err)
	}

	return strings.TrimSpace(extractText(resp)), nil
}

func (s *GeminiService) waitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	for i := 0; i < s.pollAttempts; i++ {
		current, err := s.files.GetFile(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to get uploaded file status: %w", err)
		}

		switch current.State {
		case genai.FileStateActive:
			return current, nil
		case genai.FileStateFailed:
			return nil, fmt.Errorf("Gemini failed to process uploaded audio file")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return nil, fmt.Errorf("audio file did not become active in time")
}

func mimeTypeFor(path string) string {
	if mt, ok := audioMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "audio/mp4"
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
