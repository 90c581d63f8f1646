package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Kind names the message a notifier delivers.
type Kind string

const (
	KindOTP           Kind = "otp"
	KindPasswordReset Kind = "password_reset"
)

// ErrDelivery wraps every delivery failure.
var ErrDelivery = errors.New("notification delivery failed")

// Message is the payload handed to a transport.
type Message struct {
	Kind  Kind   `json:"kind"`
	Email string `json:"email"`
	// Secret is the OTP code or reset ticket.
	Secret string `json:"secret"`
}

// LogNotifier writes every code to logger. It must not be used in
// production: codes end up in log storage.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendOTP(ctx context.Context, email, code string) error {
	return n.log(ctx, Message{Kind: KindOTP, Email: email, Secret: code})
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	return n.log(ctx, Message{Kind: KindPasswordReset, Email: email, Secret: token})
}

func (n *LogNotifier) log(ctx context.Context, m Message) error {
	n.logger.LogAttrs(ctx, slog.LevelInfo, "notification",
		slog.String("kind", string(m.Kind)),
		slog.String("email", m.Email),
		slog.String("secret", m.Secret),
	)
	return nil
}
