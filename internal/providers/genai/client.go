package genai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gai "google.golang.org/genai"

	"headshot/internal/infra"
)

const DefaultModel = "gemini-2.5-flash-image"

var (
	// ErrEmptyResponse means the model returned no usable candidate.
	ErrEmptyResponse = errors.New("genai: empty response")
	// ErrNoImageData means the candidate carried no inline image.
	ErrNoImageData = errors.New("genai: no image data in response")
	// ErrBlocked means generation stopped for a reason other than completion.
	ErrBlocked = errors.New("genai: generation blocked")
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *infra.Logger
}

// contentGenerator is the subset of the SDK models service the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*gai.Content, config *gai.GenerateContentConfig) (*gai.GenerateContentResponse, error)
}

// Client wraps the Gemini image model. Without an API key it renders
// deterministic placeholder images so the service runs locally and in CI.
type Client struct {
	models contentGenerator
	model  string
	logger *infra.Logger
}

// InputImage is an inline image attached to a request.
type InputImage struct {
	Data     []byte
	MIMEType string
}

// ImageRequest represents the information required to generate one image.
type ImageRequest struct {
	Prompt      string
	Images      []InputImage
	AspectRatio string
	RequestID   string
}

// ImageAsset is the normalized representation returned by the client.
type ImageAsset struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// NewClient constructs a Gemini client. An empty API key selects synthetic
// mode and makes no network calls.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	c := &Client{model: model, logger: logger}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		logger.Warn().Str("model", model).Msg("genai: no API key configured; using synthetic images")
		return c, nil
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	cfg := &gai.ClientConfig{
		APIKey:     apiKey,
		Backend:    gai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.HTTPOptions = gai.HTTPOptions{BaseURL: base + "/"}
	}
	sdk, err := gai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}
	c.models = sdk.Models
	return c, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// Synthetic reports whether the client renders placeholders instead of
// calling the API.
func (c *Client) Synthetic() bool {
	return c.models == nil
}

// GenerateImage sends the prompt and images as one user turn and returns the
// first inline image of the first candidate.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Synthetic() {
		return c.syntheticImage(req), nil
	}

	parts := make([]*gai.Part, 0, len(req.Images)+1)
	parts = append(parts, gai.NewPartFromText(req.Prompt))
	for _, img := range req.Images {
		if len(img.Data) == 0 {
			continue
		}
		parts = append(parts, gai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	contents := []*gai.Content{gai.NewContentFromParts(parts, gai.RoleUser)}

	config := &gai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if aspect := strings.TrimSpace(req.AspectRatio); aspect != "" {
		config.ImageConfig = &gai.ImageConfig{AspectRatio: aspect}
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai: generate content: %w", err)
	}
	asset, err := parseImageResponse(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int("images_in", len(req.Images)).
		Int("bytes_out", len(asset.Data)).
		Dur("elapsed", time.Since(start)).
		Msg("genai: generated remote image")
	return asset, nil
}

func parseImageResponse(resp *gai.GenerateContentResponse) (*ImageAsset, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, ErrEmptyResponse
	}
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			format := part.InlineData.MIMEType
			if format == "" {
				format = http.DetectContentType(part.InlineData.Data)
			}
			w, h := decodeImageDimensions(part.InlineData.Data)
			return &ImageAsset{Format: format, Width: w, Height: h, Data: part.InlineData.Data}, nil
		}
	}
	if candidate.FinishReason != gai.FinishReasonUnspecified && candidate.FinishReason != gai.FinishReasonStop {
		return nil, fmt.Errorf("%w: finish reason %s", ErrBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}
	return nil, ErrNoImageData
}
