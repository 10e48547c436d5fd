package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Profile is the identity record returned by /api/me.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// AuthResponse is returned by the login, login-token and register endpoints.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// LeaderboardRow is one entry of the daily/weekly top-10 lists.
type LeaderboardRow struct {
	Username    string `json:"username"`
	TotalPoints int    `json:"total_points"`
}

// Stats is the landing-page aggregate from /api/stats.
type Stats struct {
	TotalPlayers int              `json:"totalPlayers"`
	GamesToday   int              `json:"gamesToday"`
	RoomsLive    int              `json:"roomsLive"`
	Top10Daily   []LeaderboardRow `json:"top10Daily"`
	Top10Weekly  []LeaderboardRow `json:"top10Weekly"`
}

// Message is one message-board row.
type Message struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	ReplyTo   *int      `json:"reply_to,omitempty"`
	Likes     int       `json:"likes"`
}

// Me returns the identity behind the installed credential.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	body, err := c.Get(ctx, MeEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// Login exchanges a username and password for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	body, err := c.PostJSON(ctx, LoginEndpoint, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	var auth AuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("failed to unmarshal login response: %w", err)
	}
	return &auth, nil
}

// LoginToken exchanges a stored session cookie for a fresh token. Used by the
// silent-restore fallback when no bearer token is cached.
func (c *Client) LoginToken(ctx context.Context) (*AuthResponse, error) {
	body, err := c.PostJSON(ctx, LoginTokenEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("token login failed: %w", err)
	}

	var auth AuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token login response: %w", err)
	}
	return &auth, nil
}

// Register creates a new account and returns its first token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	body, err := c.PostJSON(ctx, RegisterEndpoint, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	var auth AuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("failed to unmarshal register response: %w", err)
	}
	return &auth, nil
}

// Stats fetches the landing-page aggregates.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	body, err := c.Get(ctx, StatsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	var stats Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return &stats, nil
}

// Messages fetches all message-board rows, newest first.
func (c *Client) Messages(ctx context.Context) ([]Message, error) {
	body, err := c.Get(ctx, MessagesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	var messages []Message
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return messages, nil
}

// PostMessage creates a message-board post, optionally as a reply.
func (c *Client) PostMessage(ctx context.Context, title, content string, replyTo *int) (*Message, error) {
	body, err := c.PostJSON(ctx, MessagesEndpoint, map[string]interface{}{
		"title":   title,
		"content": content,
		"replyTo": replyTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal posted message: %w", err)
	}
	return &msg, nil
}

// UpdateMessage edits an existing post.
func (c *Client) UpdateMessage(ctx context.Context, id int, title, content string) (*Message, error) {
	body, err := c.PutJSON(ctx, fmt.Sprintf("%s/%d", MessagesEndpoint, id), map[string]string{
		"title":   title,
		"content": content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated message: %w", err)
	}
	return &msg, nil
}

// DeleteMessage removes a post.
func (c *Client) DeleteMessage(ctx context.Context, id int) error {
	if _, err := c.Delete(ctx, fmt.Sprintf("%s/%d", MessagesEndpoint, id)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// LikeMessage increments a post's like counter.
func (c *Client) LikeMessage(ctx context.Context, id int) error {
	if _, err := c.PostJSON(ctx, fmt.Sprintf("%s/%d/like", MessagesEndpoint, id), nil); err != nil {
		return fmt.Errorf("failed to like message: %w", err)
	}
	return nil
}

// UpdateProfile changes the account's email or password.
func (c *Client) UpdateProfile(ctx context.Context, email, password string) error {
	if _, err := c.PostJSON(ctx, UpdateProfileEndpoint, map[string]string{
		"email":    email,
		"password": password,
	}); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
