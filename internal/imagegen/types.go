package imagegen

import "headshot/internal/domain"

// PromptInput collects everything that shapes one style's prompt.
type PromptInput struct {
	Style            *domain.StyleDefinition
	Year             int
	Gear             GearPreset
	ImageCount       int
	FaceMode         domain.FaceMode
	TargetAngle      domain.TargetAngle
	ReferencePresent bool
}

// Plan is a prompt together with the images to attach, in order.
type Plan struct {
	Prompt string
	Images []domain.ImageBlob
}
