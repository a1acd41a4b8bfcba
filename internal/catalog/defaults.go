package catalog

import "headshot/internal/domain"

var builtin = []domain.StyleDefinition{
	{ID: "professional", DisplayName: "Professional", Description: "Corporate headshot with neutral background",
		PromptText: "Corporate professional headshot with neutral background, well-lit, confident expression"},
	{ID: "casual", DisplayName: "Casual", Description: "Relaxed, friendly vibe",
		PromptText: "Casual, relaxed, friendly headshot with natural lighting"},
	{ID: "creative", DisplayName: "Creative", Description: "Artistic, colorful, imaginative",
		PromptText: "Creative, artistic, colorful headshot with imaginative background"},
	{ID: "vintage", DisplayName: "Vintage", Description: "Classic film aesthetic",
		PromptText: "Vintage film aesthetic headshot with classic color grading"},
	{ID: "modern", DisplayName: "Modern", Description: "Clean, minimalist, contemporary",
		PromptText: "Modern, clean, minimalist headshot with contemporary style"},
	{ID: "cinematic", DisplayName: "Cinematic", Description: "Dramatic lighting and depth",
		PromptText: "Cinematic headshot with dramatic lighting and shallow depth of field"},
	{ID: "editorial", DisplayName: "Editorial", Description: "Fashion magazine style",
		PromptText: "Fashion editorial style headshot, high fashion magazine look"},
	{ID: "outdoor", DisplayName: "Outdoor", Description: "Natural light, nature backdrop",
		PromptText: "Outdoor headshot with natural light and nature backdrop"},
	{ID: "studio", DisplayName: "Studio", Description: "Controlled studio lighting",
		PromptText: "Studio headshot with controlled professional lighting"},
	{ID: "monochrome", DisplayName: "Monochrome", Description: "Black & white elegance",
		PromptText: "Black and white monochrome headshot with elegant contrast"},
	{ID: "warm", DisplayName: "Warm Tones", Description: "Golden hour, cozy feel",
		PromptText: "Warm tones headshot with golden hour lighting, cozy feel"},
	{ID: "cool", DisplayName: "Cool Tones", Description: "Blue, crisp, clean",
		PromptText: "Cool tones headshot with blue/teal color palette, crisp and clean"},
	{ID: "artistic", DisplayName: "Artistic", Description: "Painterly, expressive",
		PromptText: "Artistic, painterly headshot with expressive style"},
	{ID: "glam", DisplayName: "Glamorous", Description: "High fashion, luxurious",
		PromptText: "Glamorous high fashion headshot, luxurious and elegant"},
	{ID: "tech", DisplayName: "Tech", Description: "Futuristic, digital aesthetic",
		PromptText: "Futuristic tech aesthetic headshot with digital elements"},
	{ID: "banana", DisplayName: "Banana Costume 🍌", Description: "Fun banana suit overlay",
		PromptText: "Person wearing a fun banana costume suit, playful and vibrant"},
}
