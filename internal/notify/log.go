package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of sending them. Used when mail is disabled.
type LogSender struct {
	log *zap.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		to = append(to, a.String())
	}
	s.log.Info("mail_outbox",
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}
