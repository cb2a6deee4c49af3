package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/ibup/internal/models"
	"github.com/desertthunder/ibup/internal/shared"
)

type accountUser struct {
	ID    json.Number `json:"id"`
	Token string      `json:"token"`
}

type accountReply struct {
	User      *accountUser `json:"user"`
	Supported []struct {
		Extension string `json:"extension"`
	} `json:"supported"`
}

// Login exchanges a login token for a [Session].
//
// Every failure wraps [shared.ErrAuthFailed]. When the reply has no "user"
// object the server message is used as the reason.
func (c *Client) Login(ctx context.Context, loginToken string) (Session, error) {
	if loginToken == "" {
		return Session{}, fmt.Errorf("%w: %w: login token", shared.ErrAuthFailed, shared.ErrMissingArgument)
	}

	resp, err := c.apiRequest(ctx, Session{}, "login_token", map[string]any{
		"login_token": loginToken,
		"type":        "account",
	}, true)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	var reply accountReply
	if err := decode(resp, &reply); err != nil {
		return Session{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if reply.User == nil {
		return Session{}, fmt.Errorf("%w: %s", shared.ErrAuthFailed, resp.Message)
	}

	sess := Session{UserID: reply.User.ID, Token: reply.User.Token}
	if !sess.Valid() {
		return Session{}, fmt.Errorf("%w: user object is missing id or token", shared.ErrAuthFailed)
	}

	c.logger.Debug("logged in", "user_id", sess.UserID)
	return sess, nil
}

// SupportedFiletypes fetches the extensions the service accepts.
//
// Every failure wraps [shared.ErrAccountInfo].
func (c *Client) SupportedFiletypes(ctx context.Context, sess Session) (models.Extensions, error) {
	if !sess.Valid() {
		return nil, fmt.Errorf("%w: %w", shared.ErrAccountInfo, shared.ErrNotAuthenticated)
	}

	resp, err := c.apiRequest(ctx, sess, "status", map[string]any{"supported_types": 1}, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAccountInfo, err)
	}

	var reply accountReply
	if err := decode(resp, &reply); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAccountInfo, err)
	}
	if reply.User == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrAccountInfo, resp.Message)
	}

	exts := make([]string, 0, len(reply.Supported))
	for _, ft := range reply.Supported {
		if ft.Extension != "" {
			exts = append(exts, ft.Extension)
		}
	}
	return models.NewExtensions(exts...), nil
}
