package provider

import (
	"context"
	"fmt"

	"github.com/orderdesk/message-gateway/internal/core"
)

// Kakao is a declared provider type with no integration behind it. Every
// send reports not-implemented rather than borrowing another platform's
// payload shape.
type Kakao struct{}

func NewKakao() *Kakao { return &Kakao{} }

func (*Kakao) SendMessage(context.Context, string, core.MessageContent, *core.MessageOptions) core.MessageResponse {
	return failure(fmt.Errorf("kakao provider: %w", core.ErrNotImplemented))
}
