//go:build noebiten

package preview

import (
	"context"
	"errors"

	"github.com/opd-ai/go-meme/pkg/meme"
)

// ErrUnavailable is returned by Run in builds without a window system.
var ErrUnavailable = errors.New("preview not available in noebiten builds")

// Run always fails in noebiten builds.
func Run(ctx context.Context, gen meme.Generator, opts Options) error {
	return ErrUnavailable
}
