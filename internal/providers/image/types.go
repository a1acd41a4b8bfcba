package image

import (
	"context"

	"headshot/internal/domain"
)

// GenerateRequest describes one style's generation call.
type GenerateRequest struct {
	RequestID   string
	StyleID     string
	Prompt      string
	Images      []domain.ImageBlob
	AspectRatio string
}

// Asset is a generated image.
type Asset struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (*Asset, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	return f(ctx, req)
}
