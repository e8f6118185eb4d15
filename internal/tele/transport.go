package tele

import (
	"context"

	"github.com/temoto/inkmenu/log2"
	tele_config "github.com/temoto/inkmenu/tele/config"
)

// Tele transport contract:
// - Init fails only with invalid config, ignores network errors
// - Send* return false when message was not handed to network, caller retries
// - application may start without network available
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, willPayload []byte) error
	Close()
	SendState(payload []byte) bool
	SendTelemetry(payload []byte) bool
}
