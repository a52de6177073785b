package stream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gexdash/internal/dashboard/controller"

	"go.uber.org/zap"
)

// Browser commands.
const (
	OpRefresh = "refresh"
	OpDismiss = "dismiss"
)

// Commands is the controller surface reachable from a browser.
type Commands interface {
	TriggerRefresh(ctx context.Context) error
	DismissBanner()
}

// Command is an inbound websocket frame, e.g. {"op":"refresh"}.
type Command struct {
	Op string `json:"op"`
}

// MakeCommandHandler returns a function that parses inbound websocket frames
// and runs the matching controller command.
func MakeCommandHandler(logger *zap.Logger, cmds Commands, timeout time.Duration) func(msg []byte) {
	return func(msg []byte) {
		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			logger.Warn("failed to parse ws command", zap.Error(err))
			return
		}

		switch cmd.Op {
		case OpRefresh:
			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			err := cmds.TriggerRefresh(ctx)
			switch {
			case errors.Is(err, controller.ErrThrottled):
				logger.Debug("ws refresh throttled")
			case err != nil:
				// already reported through the status message
				logger.Debug("ws refresh failed", zap.Error(err))
			}
		case OpDismiss:
			cmds.DismissBanner()
		default:
			logger.Warn("unknown ws command", zap.String("op", cmd.Op))
		}
	}
}
