// internal/services/generation_service.go
package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/utils"
)

// Style is one entry of the derivative style catalog.
type Style struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`

	colors string
}

var styles = []Style{
	{Value: "ghibli", Label: "Studio Ghibli", Prompt: "Transform into Studio Ghibli anime art style with soft colors and magical atmosphere", colors: "90EE90/228B22"},
	{Value: "pixel", Label: "Pixel Art", Prompt: "Convert to 8-bit pixel art style with retro gaming aesthetics", colors: "FF00FF/800080"},
	{Value: "3d", Label: "3D Render", Prompt: "Create a modern 3D rendered version with realistic lighting and materials", colors: "87CEEB/4682B4"},
	{Value: "cartoon", Label: "Cartoon", Prompt: "Transform into vibrant cartoon style with bold outlines and bright colors", colors: "FFD700/FF8C00"},
	{Value: "cyberpunk", Label: "Cyberpunk", Prompt: "Reimagine in cyberpunk style with neon lights and futuristic elements", colors: "00FFFF/FF00FF"},
	{Value: "watercolor", Label: "Watercolor", Prompt: "Convert to watercolor painting style with flowing colors and artistic brushstrokes", colors: "DDA0DD/9370DB"},
	{Value: "sketch", Label: "Pencil Sketch", Prompt: "Transform into detailed pencil sketch with artistic shading", colors: "D3D3D3/696969"},
	{Value: "oil", Label: "Oil Painting", Prompt: "Recreate as classical oil painting with rich textures and deep colors", colors: "F5DEB3/CD853F"},
}

var nameTemplates = []string{
	"%[1]s - %[2]s Edition",
	"%[2]s %[1]s",
	"%[1]s in %[2]s Style",
	"%[2]s Variant of %[1]s",
	"%[1]s: %[2]s Remix",
}

const (
	defaultBaseName        = "Untitled NFT"
	defaultBaseDescription = "An NFT"
)

// Progress stages reported while a derivative is generated.
const (
	StagePreparing  = "preparing"
	StageGenerating = "generating"
	StageProcessing = "processing"
	StageComplete   = "complete"
	StageError      = "error"
)

type GenerationRequest struct {
	BaseImageURL       string `json:"baseImageUrl" validate:"required"`
	Style              string `json:"style" validate:"required"`
	BaseNFTName        string `json:"baseNFTName,omitempty" validate:"max=255"`
	BaseNFTDescription string `json:"baseNFTDescription,omitempty"`
}

type GeneratedImage struct {
	ImageURL    string `json:"imageUrl"`
	Prompt      string `json:"prompt"`
	Style       string `json:"style"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type GenerationProgress struct {
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// GenerationService produces placeholder derivatives. No model is called;
// the delay stands in for inference time.
type GenerationService struct {
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time
}

func NewGenerationService(cfg *config.Config) *GenerationService {
	return &GenerationService{
		minDelay: time.Duration(cfg.Generation.MinDelayMS) * time.Millisecond,
		maxDelay: time.Duration(cfg.Generation.MaxDelayMS) * time.Millisecond,
		now:      time.Now,
	}
}

func (s *GenerationService) Styles() []Style {
	out := make([]Style, len(styles))
	copy(out, styles)
	return out
}

func (s *GenerationService) Style(value string) (Style, bool) {
	for _, st := range styles {
		if st.Value == value {
			return st, true
		}
	}
	return Style{}, false
}

func (s *GenerationService) Generate(ctx context.Context, req *GenerationRequest) (*GeneratedImage, error) {
	return s.GenerateWithProgress(ctx, req, nil)
}

// GenerateWithProgress reports each stage to progress (when non-nil) while
// waiting out the simulated generation time. Cancelling ctx aborts the wait.
func (s *GenerationService) GenerateWithProgress(ctx context.Context, req *GenerationRequest, progress func(GenerationProgress)) (*GeneratedImage, error) {
	style, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	report := func(stage string, pct int, message string) {
		if progress != nil {
			progress(GenerationProgress{Stage: stage, Progress: pct, Message: message})
		}
	}

	total := s.delay()
	steps := []struct {
		stage   string
		pct     int
		message string
		wait    time.Duration
	}{
		{StagePreparing, 10, "Preparing AI model...", total / 4},
		{StageGenerating, 30, "Generating image...", total / 2},
		{StageProcessing, 80, "Processing result...", total - total/4 - total/2},
	}

	for _, step := range steps {
		report(step.stage, step.pct, step.message)
		if err := sleep(ctx, step.wait); err != nil {
			return nil, err
		}
	}
	report(StageComplete, 100, "Generation complete!")

	return s.build(req, style), nil
}

func (s *GenerationService) prepare(req *GenerationRequest) (Style, error) {
	req.BaseNFTName = utils.SanitizeText(req.BaseNFTName)
	req.BaseNFTDescription = utils.SanitizeText(req.BaseNFTDescription)

	if err := utils.ValidateStruct(req); err != nil {
		return Style{}, invalidInput(err)
	}

	style, ok := s.Style(req.Style)
	if !ok {
		return Style{}, fmt.Errorf("%w: unknown AI style %q", ErrInvalidInput, req.Style)
	}
	return style, nil
}

func (s *GenerationService) build(req *GenerationRequest, style Style) *GeneratedImage {
	return &GeneratedImage{
		ImageURL:    s.placeholderImage(style),
		Prompt:      style.Prompt,
		Style:       style.Value,
		Name:        generateName(req.BaseNFTName, style.Label),
		Description: generateDescription(req.BaseNFTDescription, style),
	}
}

func (s *GenerationService) delay() time.Duration {
	spread := s.maxDelay - s.minDelay
	if spread <= 0 {
		return s.minDelay
	}
	return s.minDelay + rand.N(spread+1)
}

func (s *GenerationService) placeholderImage(style Style) string {
	return fmt.Sprintf("https://via.placeholder.com/512x512/%s?text=%s+Style&t=%d",
		style.colors, strings.ToUpper(style.Value), s.now().UnixMilli())
}

func generateName(baseName, styleLabel string) string {
	if baseName == "" {
		baseName = defaultBaseName
	}
	template := nameTemplates[rand.IntN(len(nameTemplates))]
	return fmt.Sprintf(template, baseName, styleLabel)
}

func generateDescription(baseDescription string, style Style) string {
	if baseDescription == "" {
		baseDescription = defaultBaseDescription
	}
	return fmt.Sprintf("%s reimagined through AI transformation in %s style. %s. "+
		"This derivative maintains the essence of the original while exploring new artistic possibilities through artificial intelligence.",
		baseDescription, style.Label, style.Prompt)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
