package domain

import (
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultAspectRatio is used when the request omits the aspect ratio.
	DefaultAspectRatio = "1:1"
	// MinYear and MaxYear bound the era requested for the camera gear clause.
	MinYear = 1826
	MaxYear = 2100
)

var allowedAspectRatios = map[string]struct{}{
	"1:1":  {},
	"2:3":  {},
	"3:2":  {},
	"3:4":  {},
	"4:3":  {},
	"4:5":  {},
	"5:4":  {},
	"9:16": {},
	"16:9": {},
	"21:9": {},
}

// NormalizeAspectRatio applies the default and validates the value.
func NormalizeAspectRatio(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return DefaultAspectRatio, nil
	}
	if _, ok := allowedAspectRatios[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAspectRatio, raw)
	}
	return v, nil
}

// ImageBlob is an uploaded image. Data is set for in-memory blobs; spooled
// uploads carry a Path instead.
type ImageBlob struct {
	Name     string
	MIMEType string
	Path     string
	Size     int64
	Data     []byte
}

// Bytes returns the image content.
func (b ImageBlob) Bytes() ([]byte, error) {
	if b.Data != nil {
		return b.Data, nil
	}
	if b.Path == "" {
		return nil, fmt.Errorf("image %q has no content", b.Name)
	}
	return os.ReadFile(b.Path)
}

// RequestParams carries the raw, already-parsed request inputs.
type RequestParams struct {
	ID           string
	Images       []ImageBlob
	StyleIDs     []string
	FaceMode     FaceMode
	PrimaryIndex int
	Reference    *ImageBlob
	Year         int
	TargetAngle  TargetAngle
	AspectRatio  string
	MaxImages    int
}

// GenerationRequest is a validated generation job. Treat it as read-only.
type GenerationRequest struct {
	ID           string
	Images       []ImageBlob
	StyleIDs     []string
	FaceMode     FaceMode
	PrimaryIndex int
	Reference    *ImageBlob
	Year         int
	TargetAngle  TargetAngle
	AspectRatio  string
}

// NewGenerationRequest validates params and fills defaults.
func NewGenerationRequest(p RequestParams, styles StyleLookup) (*GenerationRequest, error) {
	if len(p.Images) == 0 {
		return nil, Invalid("profiles", ErrNoImages)
	}
	if p.MaxImages > 0 && len(p.Images) > p.MaxImages {
		return nil, Invalid("profiles", fmt.Errorf("%w: got %d, max %d", ErrTooManyImages, len(p.Images), p.MaxImages))
	}

	styleIDs := make([]string, 0, len(p.StyleIDs))
	seen := make(map[string]struct{}, len(p.StyleIDs))
	for _, raw := range p.StyleIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if styles != nil {
			if _, ok := styles.Lookup(id); !ok {
				return nil, Invalid("styles", fmt.Errorf("%w: %q", ErrUnknownStyle, id))
			}
		}
		seen[id] = struct{}{}
		styleIDs = append(styleIDs, id)
	}
	if len(styleIDs) == 0 {
		return nil, Invalid("styles", ErrNoStyles)
	}

	mode, err := ParseFaceMode(string(p.FaceMode))
	if err != nil {
		return nil, Invalid("faceMode", err)
	}

	primary := p.PrimaryIndex
	if mode == FaceModeSingle {
		if primary < 0 || primary >= len(p.Images) {
			return nil, Invalid("primaryImageIndex", fmt.Errorf("%w: %d", ErrInvalidPrimaryIndex, primary))
		}
	} else {
		primary = 0
	}

	if p.Year < MinYear || p.Year > MaxYear {
		return nil, Invalid("year", fmt.Errorf("%w: %d", ErrInvalidYear, p.Year))
	}

	angle, err := ParseTargetAngle(string(p.TargetAngle))
	if err != nil {
		return nil, Invalid("targetAngle", err)
	}

	aspect, err := NormalizeAspectRatio(p.AspectRatio)
	if err != nil {
		return nil, Invalid("aspectRatio", err)
	}

	images := make([]ImageBlob, len(p.Images))
	copy(images, p.Images)
	var ref *ImageBlob
	if p.Reference != nil {
		r := *p.Reference
		ref = &r
	}

	return &GenerationRequest{
		ID:           p.ID,
		Images:       images,
		StyleIDs:     styleIDs,
		FaceMode:     mode,
		PrimaryIndex: primary,
		Reference:    ref,
		Year:         p.Year,
		TargetAngle:  angle,
		AspectRatio:  aspect,
	}, nil
}
