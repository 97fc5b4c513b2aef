package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kahani-labs/kahani/pkg/story"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	narrationTimeout  = 120 * time.Second

	monolingualModel  = "eleven_monolingual_v1"
	multilingualModel = "eleven_multilingual_v2"
)

// AudioGenerator narrates text to an audio file. Implementations always
// leave a file at outputPath (real narration or placeholder) and report
// whether real output was produced.
type AudioGenerator interface {
	GenerateAudio(ctx context.Context, text string, lang story.Language, voiceStyle, outputPath string) bool
}

// ElevenLabsService implements AudioGenerator against the ElevenLabs
// text-to-speech API.
type ElevenLabsService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ AudioGenerator = (*ElevenLabsService)(nil)

// voiceMap selects a voice id per language and narration style.
// Languages without dedicated voices fall back to the english set.
var voiceMap = map[story.Language]map[string]string{
	story.LanguageEnglish: {
		"narrative": "21m00Tcm4TlvDq8ikWAM", // Rachel
		"dramatic":  "TxGEqnHWrfWFTfGW9XjX", // Josh
		"calm":      "EXAVITQu4vr4xnSDxMaL", // Bella
		"energetic": "ErXwobaYiN019PkySvjV", // Antoni
	},
	story.LanguageHindi: {
		"narrative": "zgqefOY5FPQ3bB7OZTVR", // Prabhat
	},
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// NewElevenLabsService creates an ElevenLabs narration client.
func NewElevenLabsService(apiKey string, logger *slog.Logger) *ElevenLabsService {
	return &ElevenLabsService{
		apiKey:  apiKey,
		baseURL: elevenLabsBaseURL,
		httpClient: &http.Client{
			Timeout: narrationTimeout,
		},
		logger: logger,
	}
}

func voiceFor(lang story.Language, style string) string {
	voices, ok := voiceMap[lang]
	if !ok {
		voices = voiceMap[story.LanguageEnglish]
	}
	if id, ok := voices[style]; ok {
		return id
	}
	return voiceMap[story.LanguageEnglish]["narrative"]
}

// GenerateAudio synthesizes narration and writes it to outputPath. On
// any failure a placeholder file is written instead and false is
// returned, so a file always exists at the target location.
func (s *ElevenLabsService) GenerateAudio(ctx context.Context, text string, lang story.Language, voiceStyle, outputPath string) bool {
	audio, err := s.synthesize(ctx, text, lang, voiceStyle)
	if err != nil {
		s.logger.Warn("Narration failed, writing placeholder audio", "error", err, "path", outputPath)
		if werr := WritePlaceholderAudio(outputPath); werr != nil {
			s.logger.Error("Failed to write placeholder audio", "error", werr, "path", outputPath)
		}
		return false
	}

	if err := writeFile(outputPath, audio); err != nil {
		s.logger.Error("Failed to write audio file", "error", err, "path", outputPath)
		return false
	}
	return true
}

func (s *ElevenLabsService) synthesize(ctx context.Context, text string, lang story.Language, voiceStyle string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("narration API key is not configured")
	}

	modelID := monolingualModel
	if lang != story.LanguageEnglish {
		modelID = multilingualModel
	}

	styleWeight := 0.4
	if voiceStyle == "dramatic" {
		styleWeight = 0.6
	}

	reqBody, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.75,
			SimilarityBoost: 0.8,
			Style:           styleWeight,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, voiceFor(lang, voiceStyle))
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// placeholderAudio is a minimal silent MPEG frame sequence, enough for
// players to recognize the file while signalling degraded output.
var placeholderAudio = bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x00, 0x00, 0x00}, 64)

// WritePlaceholderAudio writes the degraded-output audio file.
func WritePlaceholderAudio(outputPath string) error {
	return writeFile(outputPath, placeholderAudio)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}
