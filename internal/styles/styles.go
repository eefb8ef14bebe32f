// Package styles defines the catalog of image styles the batch pipeline produces.
//
// Prompt text is stored as files under prompts/ and embedded at compile time,
// so prompts can be tuned without touching Go code.
package styles

import (
	_ "embed"
	"strings"
)

// Style pairs a catalog name with the prompt sent to the transformation API.
// The name doubles as the output folder segment for that style's results.
type Style struct {
	Name   string
	Prompt string
}

//go:embed prompts/geometric-3d.txt
var geometric3DPrompt string

//go:embed prompts/watercolor.txt
var watercolorPrompt string

//go:embed prompts/cyberpunk.txt
var cyberpunkPrompt string

//go:embed prompts/anime.txt
var animePrompt string

// catalog holds the styles in processing order. The pipeline generates
// outputs per file in exactly this order.
var catalog = []Style{
	{Name: "geometric_3d", Prompt: strings.TrimSpace(geometric3DPrompt)},
	{Name: "watercolor", Prompt: strings.TrimSpace(watercolorPrompt)},
	{Name: "cyberpunk", Prompt: strings.TrimSpace(cyberpunkPrompt)},
	{Name: "anime", Prompt: strings.TrimSpace(animePrompt)},
}

// All returns the style catalog in processing order.
// The returned slice is a copy; callers may modify it freely.
func All() []Style {
	out := make([]Style, len(catalog))
	copy(out, catalog)
	return out
}
