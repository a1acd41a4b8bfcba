package imagegen

import (
	"fmt"
	"strings"

	"headshot/internal/domain"
)

const (
	fallbackStyleText = "Professional headshot"
	fidelityClause    = "Keep facial features recognizable and natural. High quality, professional result."
	// multiAngleMinImages is the smallest set treated as an angle study.
	multiAngleMinImages = 3
)

// BuildPrompt renders the generation prompt. It has no side effects and the
// same input always yields the same text.
func BuildPrompt(in PromptInput) string {
	parts := []string{}

	styleText := fallbackStyleText
	if in.Style != nil {
		if text := strings.TrimSpace(in.Style.PromptText); text != "" {
			styleText = text
		}
	}
	parts = append(parts, fmt.Sprintf("Create a %s.", strings.TrimSuffix(styleText, ".")))

	g := in.Gear
	parts = append(parts, fmt.Sprintf(
		"Capture it as if photographed in %d on a %s with a %s lens at ISO %d, %s, %s, lit with %s.",
		in.Year, g.Camera, g.Lens, g.ISO, g.Aperture, g.Shutter, g.Lighting,
	))

	parts = append(parts, compositionClause(in))

	if in.ReferencePresent {
		parts = append(parts, "Apply the style and aesthetic from the style reference image, which is the last image provided. Do not use the face from the style reference image.")
	}

	parts = append(parts, fidelityClause)
	return strings.Join(parts, " ")
}

func compositionClause(in PromptInput) string {
	n := in.ImageCount
	if n <= 1 {
		return "Use the provided profile image."
	}
	switch in.FaceMode {
	case domain.FaceModeMix:
		return fmt.Sprintf("Blend and mix facial features from all %d provided images to create a composite face. Combine distinctive features from each image into a unified, cohesive face.", n)
	case domain.FaceModeMultiAngle:
		if n >= multiAngleMinImages {
			clause := fmt.Sprintf("These %d images show the same person from different angles. Synthesize a single, consistent facial model from all of them.", n)
			if desc := in.TargetAngle.Describe(); desc != "" {
				clause += fmt.Sprintf(" Render the portrait from %s.", desc)
			}
			return clause
		}
	}
	return fmt.Sprintf("Use only the face of image 1, the primary reference. Ignore the faces in the other %d images.", n-1)
}

// Compose builds the plan for one style of req. Single mode attaches the
// primary image first; the reference image, if any, is always last.
func Compose(style *domain.StyleDefinition, req *domain.GenerationRequest, gear GearPreset) Plan {
	images := make([]domain.ImageBlob, 0, len(req.Images)+1)
	if req.FaceMode == domain.FaceModeSingle && len(req.Images) > 0 {
		primary := req.PrimaryIndex
		if primary < 0 || primary >= len(req.Images) {
			primary = 0
		}
		images = append(images, req.Images[primary])
		for i, img := range req.Images {
			if i != primary {
				images = append(images, img)
			}
		}
	} else {
		images = append(images, req.Images...)
	}
	if req.Reference != nil {
		images = append(images, *req.Reference)
	}

	prompt := BuildPrompt(PromptInput{
		Style:            style,
		Year:             req.Year,
		Gear:             gear,
		ImageCount:       len(req.Images),
		FaceMode:         req.FaceMode,
		TargetAngle:      req.TargetAngle,
		ReferencePresent: req.Reference != nil,
	})
	return Plan{Prompt: prompt, Images: images}
}
