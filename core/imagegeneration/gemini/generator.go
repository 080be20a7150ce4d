// Package gemini generates illustrations with Imagen models through the
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/koscakluka/ema-storyteller/core/imagegeneration"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const DefaultModel = "imagen-4.0-fast-generate-001"

type imageModels interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

type Generator struct {
	models  imageModels
	model   string
	options imagegeneration.GenerationOptions
}

// NewGenerator reads the API key from GEMINI_API_KEY or GOOGLE_API_KEY when
// apiKey is empty.
func NewGenerator(ctx context.Context, apiKey, model string, opts ...imagegeneration.GenerationOption) (*Generator, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not found")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	return newGenerator(client.Models, model, opts...), nil
}

func newGenerator(models imageModels, model string, opts ...imagegeneration.GenerationOption) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		models:  models,
		model:   model,
		options: imagegeneration.NewGenerationOptions(opts...),
	}
}

// Generate returns the encoded bytes of a single image for prompt. A nil
// image with a nil error means the backend produced nothing, usually because
// the prompt was filtered.
func (g *Generator) Generate(ctx context.Context, prompt string) (image []byte, err error) {
	ctx, span := tracer.Start(ctx, "generate image")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", g.model))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	resp, err := g.models.GenerateImages(ctx, g.model, g.options.Prompt(prompt), &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    g.options.AspectRatio,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("genai generate images: %w", err)
	}

	if resp == nil || len(resp.GeneratedImages) == 0 {
		logger.DebugContext(ctx, "no image generated")
		return nil, nil
	}

	generated := resp.GeneratedImages[0]
	if generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		logger.InfoContext(ctx, "image filtered", "reason", generated.RAIFilteredReason)
		return nil, nil
	}

	span.SetAttributes(
		attribute.String("response.mime_type", generated.Image.MIMEType),
		attribute.Int("response.bytes", len(generated.Image.ImageBytes)),
	)
	return generated.Image.ImageBytes, nil
}
