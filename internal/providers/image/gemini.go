package image

import (
	"context"
	"fmt"

	"headshot/internal/providers/genai"
)

type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	images := make([]genai.InputImage, 0, len(req.Images))
	for _, blob := range req.Images {
		data, err := blob.Bytes()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", blob.Name, err)
		}
		images = append(images, genai.InputImage{Data: data, MIMEType: blob.MIMEType})
	}
	asset, err := g.client.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		Images:      images,
		AspectRatio: req.AspectRatio,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return nil, err
	}
	return &Asset{
		Format: asset.Format,
		Width:  asset.Width,
		Height: asset.Height,
		Data:   asset.Data,
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)
