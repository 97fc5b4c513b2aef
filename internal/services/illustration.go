package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	stabilityBaseURL    = "https://api.stability.ai/v2beta"
	illustrationTimeout = 120 * time.Second
	stabilityModel      = "sd3.5-flash"
)

// ImageGenerator renders an illustration to an image file. Like
// AudioGenerator, implementations always leave a file at outputPath and
// report whether real output was produced.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, description, style, outputPath string) bool
}

// StabilityService implements ImageGenerator against the Stability AI
// image generation API.
type StabilityService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ImageGenerator = (*StabilityService)(nil)

// stylePrompts append style guidance to the generated description.
var stylePrompts = map[string]string{
	"illustration":    "beautiful cultural illustration, detailed artwork, traditional art style",
	"realistic":       "photorealistic, high quality, detailed cultural scene",
	"cartoon":         "cartoon style, vibrant colors, family-friendly cultural art",
	"traditional_art": "traditional cultural art style, authentic heritage artwork",
}

// NewStabilityService creates a Stability illustration client.
func NewStabilityService(apiKey string, logger *slog.Logger) *StabilityService {
	return &StabilityService{
		apiKey:  apiKey,
		baseURL: stabilityBaseURL,
		httpClient: &http.Client{
			Timeout: illustrationTimeout,
		},
		logger: logger,
	}
}

// GenerateImage renders the description and writes it to outputPath. On
// any failure a placeholder image is written instead and false is
// returned.
func (s *StabilityService) GenerateImage(ctx context.Context, description, style, outputPath string) bool {
	img, err := s.render(ctx, description, style)
	if err != nil {
		s.logger.Warn("Illustration failed, writing placeholder image", "error", err, "path", outputPath)
		if werr := WritePlaceholderImage(outputPath); werr != nil {
			s.logger.Error("Failed to write placeholder image", "error", werr, "path", outputPath)
		}
		return false
	}

	if err := writeFile(outputPath, img); err != nil {
		s.logger.Error("Failed to write image file", "error", err, "path", outputPath)
		return false
	}
	return true
}

func (s *StabilityService) render(ctx context.Context, description, style string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("illustration API key is not configured")
	}

	stylePrompt, ok := stylePrompts[style]
	if !ok {
		stylePrompt = stylePrompts["illustration"]
	}
	prompt := fmt.Sprintf("%s, %s, high quality, culturally authentic", description, stylePrompt)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := form.WriteField("model", stabilityModel); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := form.WriteField("output_format", "png"); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	url := s.baseURL + "/stable-image/generate/sd3"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "image/*")

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

// WritePlaceholderImage writes a flat 512x512 PNG at outputPath,
// matching the reference system's degraded-output behavior.
func WritePlaceholderImage(outputPath string) error {
	img := image.NewRGBA(image.Rect(0, 0, 512, 512))
	fill := color.RGBA{R: 173, G: 216, B: 230, A: 255} // light blue
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return writeFile(outputPath, buf.Bytes())
}
