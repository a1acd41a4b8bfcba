package domain

import (
	"fmt"
	"strings"
)

// StyleDefinition describes one selectable headshot style.
type StyleDefinition struct {
	ID          string `json:"id" mapstructure:"id"`
	DisplayName string `json:"title" mapstructure:"title"`
	PromptText  string `json:"-" mapstructure:"prompt"`
	Description string `json:"description" mapstructure:"description"`
}

// StyleLookup resolves style ids against the loaded catalog.
type StyleLookup interface {
	Lookup(id string) (*StyleDefinition, bool)
}

// FaceMode controls how multiple profile images are combined.
type FaceMode string

const (
	FaceModeSingle     FaceMode = "single"
	FaceModeMix        FaceMode = "mix"
	FaceModeMultiAngle FaceMode = "multiAngle"
)

// ParseFaceMode accepts the public form values. Empty input selects single.
func ParseFaceMode(raw string) (FaceMode, error) {
	switch strings.TrimSpace(raw) {
	case "", string(FaceModeSingle):
		return FaceModeSingle, nil
	case string(FaceModeMix):
		return FaceModeMix, nil
	case string(FaceModeMultiAngle), "multi-angle", "multiangle":
		return FaceModeMultiAngle, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFaceMode, raw)
	}
}

// TargetAngle is the optional viewpoint requested in multi-angle mode.
type TargetAngle string

const (
	AngleNone         TargetAngle = ""
	AngleFront        TargetAngle = "front"
	AngleThreeQuarter TargetAngle = "three-quarter"
	AngleSide         TargetAngle = "side"
	AngleLookingUp    TargetAngle = "looking-up"
	AngleLookingDown  TargetAngle = "looking-down"
)

var angleDescriptions = map[TargetAngle]string{
	AngleFront:        "a straight-on front view",
	AngleThreeQuarter: "a three-quarter view",
	AngleSide:         "a side profile view",
	AngleLookingUp:    "a low angle with the subject looking up",
	AngleLookingDown:  "a high angle with the subject looking down",
}

// ParseTargetAngle validates the raw form value.
func ParseTargetAngle(raw string) (TargetAngle, error) {
	a := TargetAngle(strings.ToLower(strings.TrimSpace(raw)))
	if a == AngleNone {
		return AngleNone, nil
	}
	if _, ok := angleDescriptions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAngle, raw)
	}
	return a, nil
}

// Describe returns the phrase used in prompts, or "" for AngleNone.
func (a TargetAngle) Describe() string {
	return angleDescriptions[a]
}
