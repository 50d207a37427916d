package notifier

import (
	"context"

	"TickerSentinel/internal/common"
)

// Notifier delivers a user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// LogNotifier writes notifications to the log. It is used when no
// messaging transport is configured.
type LogNotifier struct {
	logger *common.Logger
}

func NewLogNotifier(logger *common.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, title, body string) error {
	n.logger.Info().Str("title", title).Msg(body)
	return nil
}
