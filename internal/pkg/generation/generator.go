package generation

import (
	"context"
)

// ArtifactRef points at one successfully generated and stored cover.
type ArtifactRef struct {
	UUID      string `json:"uuid"`
	ObjectKey string `json:"-"`
	URL       string `json:"url"`
	Style     string `json:"style"`
}

// Generator produces a single cover artifact for a prompt and style.
// Implementations are expected to upload the artifact to durable storage
// and return a reference; a returned error means the attempt produced
// nothing chargeable.
type Generator interface {
	Generate(ctx context.Context, prompt, style string) (*ArtifactRef, error)
}

// Styles is the fixed list used for round-robin style variation when the
// caller does not pin an explicit style. Selection is deterministic per
// attempt index so re-running a batch varies the same way.
var Styles = []string{
	"minimalist",
	"fantasy",
	"vintage",
	"photorealistic",
	"abstract",
}

// StyleForAttempt picks the style for one attempt: the explicit style if
// given, otherwise round-robin over Styles by attempt index.
func StyleForAttempt(explicit string, attempt int) string {
	if explicit != "" {
		return explicit
	}
	return Styles[attempt%len(Styles)]
}
