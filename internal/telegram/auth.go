package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// ErrPasswordNeeded is returned by SignIn when the account has two-factor
// authentication enabled, which this login flow does not cover.
var ErrPasswordNeeded = errors.New("account requires a 2FA password")

// UserInfo describes the signed-in Telegram account.
type UserInfo struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// AuthStatus reports session validity and, when authorized, the account.
type AuthStatus struct {
	Authorized bool
	User       *UserInfo
}

// SendCode starts the login flow for a phone number and returns the
// phone_code_hash the verification step must echo back.
func (c *Client) SendCode(ctx context.Context, phone string) (string, error) {
	if err := c.waitReady(ctx); err != nil {
		return "", err
	}
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", fmt.Errorf("send code: %w", err)
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected sent code type %T", sent)
	}
	return code.PhoneCodeHash, nil
}

// SignIn completes the login flow with the code received on the account.
func (c *Client) SignIn(ctx context.Context, phone, code, codeHash string) (*UserInfo, error) {
	if err := c.waitReady(ctx); err != nil {
		return nil, err
	}
	authorization, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordAuthNeeded) {
			return nil, ErrPasswordNeeded
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return userInfo(authorization.User), nil
}

// Reset logs the session out, invalidating the stored credentials.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.waitReady(ctx); err != nil {
		return err
	}
	if _, err := c.client.API().AuthLogOut(ctx); err != nil {
		return fmt.Errorf("log out: %w", err)
	}
	c.log.Info("telegram session reset")
	return nil
}

// Status reports whether the stored session is signed in.
func (c *Client) Status(ctx context.Context) (*AuthStatus, error) {
	if err := c.waitReady(ctx); err != nil {
		return nil, err
	}
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth status: %w", err)
	}
	out := &AuthStatus{Authorized: status.Authorized}
	if status.Authorized && status.User != nil {
		out.User = userInfo(status.User)
	}
	return out, nil
}

func userInfo(u tg.UserClass) *UserInfo {
	user, ok := u.AsNotEmpty()
	if !ok {
		return nil
	}
	return &UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}
