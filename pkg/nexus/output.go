package nexus

import (
	"context"

	"github.com/norasector/nexus/pkg/nexus/types"
)

// Output handles frames produced on every update.
type Output interface {
	// Start receives a context and should run in a loop, terminating upon ctx closing or on any errors.
	Start(ctx context.Context) error
	// Receive returns a channel that receives frames. Sends never block, so a full channel drops the frame.
	Receive() chan<- *types.Frame
}
