package genai

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gai "google.golang.org/genai"
)

type fakeModels struct {
	resp *gai.GenerateContentResponse
	err  error

	gotModel    string
	gotContents []*gai.Content
	gotConfig   *gai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*gai.Content, config *gai.GenerateContentConfig) (*gai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotContents = contents
	f.gotConfig = config
	return f.resp, f.err
}

func newTestClient(t *testing.T, models contentGenerator) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), Options{})
	require.NoError(t, err)
	c.models = models
	return c
}

func imageResponse(parts ...*gai.Part) *gai.GenerateContentResponse {
	return &gai.GenerateContentResponse{
		Candidates: []*gai.Candidate{{
			Content:      &gai.Content{Parts: parts},
			FinishReason: gai.FinishReasonStop,
		}},
	}
}

func TestGenerateImageSendsPromptAndImages(t *testing.T) {
	fake := &fakeModels{resp: imageResponse(
		&gai.Part{Text: "here you go"},
		&gai.Part{InlineData: &gai.Blob{MIMEType: "image/png", Data: []byte("img")}},
	)}
	c := newTestClient(t, fake)

	asset, err := c.GenerateImage(context.Background(), ImageRequest{
		Prompt:      "Create a portrait.",
		Images:      []InputImage{{Data: []byte("a"), MIMEType: "image/jpeg"}, {Data: nil}, {Data: []byte("b"), MIMEType: "image/png"}},
		AspectRatio: "3:4",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), asset.Data)
	assert.Equal(t, "image/png", asset.Format)

	assert.Equal(t, DefaultModel, fake.gotModel)
	require.Len(t, fake.gotContents, 1)
	parts := fake.gotContents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, "Create a portrait.", parts[0].Text)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("b"), parts[2].InlineData.Data)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, fake.gotConfig.ResponseModalities)
	require.NotNil(t, fake.gotConfig.ImageConfig)
	assert.Equal(t, "3:4", fake.gotConfig.ImageConfig.AspectRatio)
}

func TestGenerateImageTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	c := newTestClient(t, &fakeModels{err: boom})
	_, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
	assert.ErrorIs(t, err, boom)
}

func TestParseImageResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *gai.GenerateContentResponse
		want error
	}{
		{name: "nil", resp: nil, want: ErrEmptyResponse},
		{name: "no candidates", resp: &gai.GenerateContentResponse{}, want: ErrEmptyResponse},
		{name: "no parts", resp: imageResponse(), want: ErrEmptyResponse},
		{name: "text only", resp: imageResponse(&gai.Part{Text: "sorry"}), want: ErrNoImageData},
		{name: "empty inline data", resp: imageResponse(&gai.Part{InlineData: &gai.Blob{MIMEType: "image/png"}}), want: ErrNoImageData},
		{name: "safety", resp: &gai.GenerateContentResponse{Candidates: []*gai.Candidate{{FinishReason: gai.FinishReasonSafety}}}, want: ErrBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseImageResponse(tt.resp)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseImageResponsePicksFirstImage(t *testing.T) {
	resp := imageResponse(
		&gai.Part{InlineData: &gai.Blob{MIMEType: "image/png"}},
		&gai.Part{InlineData: &gai.Blob{MIMEType: "image/webp", Data: []byte("first")}},
		&gai.Part{InlineData: &gai.Blob{MIMEType: "image/png", Data: []byte("second")}},
	)
	asset, err := parseImageResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), asset.Data)
	assert.Equal(t, "image/webp", asset.Format)
}

func TestSyntheticImageDeterministic(t *testing.T) {
	c, err := NewClient(context.Background(), Options{Model: "test-model"})
	require.NoError(t, err)
	require.True(t, c.Synthetic())
	assert.Equal(t, "test-model", c.Model())

	req := ImageRequest{Prompt: "Create a vintage headshot.", AspectRatio: "16:9"}
	first, err := c.GenerateImage(context.Background(), req)
	require.NoError(t, err)
	second, err := c.GenerateImage(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first.Data, second.Data))

	cfg, err := png.DecodeConfig(bytes.NewReader(first.Data))
	require.NoError(t, err)
	assert.Equal(t, 910, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestGenerateImageHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestClient(t, &fakeModels{})
	_, err := c.GenerateImage(ctx, ImageRequest{Prompt: "p"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeAspect(t *testing.T) {
	tests := map[string][2]int{
		"":     {512, 512},
		"1:1":  {512, 512},
		"9:16": {512, 910},
		"3:2":  {768, 512},
		"bad":  {512, 512},
	}
	for in, want := range tests {
		w, h := normalizeAspect(in)
		assert.Equal(t, want, [2]int{w, h}, in)
	}
}
