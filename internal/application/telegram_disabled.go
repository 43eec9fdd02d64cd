package application

import (
	"context"
	"errors"

	"github.com/tgmetrics/channel-metrics-service/internal/telegram"
)

var errTelegramDisabled = errors.New("telegram is not configured: set telegram.api_id and telegram.api_hash")

// telegramDisabled stands in for the Telegram client when credentials are
// absent, so CRUD endpoints stay usable.
type telegramDisabled struct{}

func (telegramDisabled) Authorized(context.Context) (bool, error) {
	return false, errTelegramDisabled
}

func (telegramDisabled) Fetch(context.Context, int64, string, int) (*telegram.ChannelFetch, error) {
	return nil, errTelegramDisabled
}

func (telegramDisabled) SendCode(context.Context, string) (string, error) {
	return "", errTelegramDisabled
}

func (telegramDisabled) SignIn(context.Context, string, string, string) (*telegram.UserInfo, error) {
	return nil, errTelegramDisabled
}

func (telegramDisabled) Reset(context.Context) error {
	return errTelegramDisabled
}

func (telegramDisabled) Status(context.Context) (*telegram.AuthStatus, error) {
	return &telegram.AuthStatus{Authorized: false}, nil
}
