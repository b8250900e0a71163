// Package chat is a minimal server-side client for the external chat-identity
// service. The service keeps its own copy of {id, name, image} per user so the
// real-time chat transport can render members without calling back into this
// API.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"streamify/api/internal/config"
)

// User is the slice of identity mirrored into the chat service.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
}

func NewClient(cfg config.ChatConfig) *Client {
	return &Client{
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		baseURL:   cfg.BaseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// UpsertUser creates or updates the mirrored identity. The call is idempotent:
// repeating it with the same payload leaves the mirror unchanged.
func (c *Client) UpsertUser(ctx context.Context, user User) error {
	if user.ID == "" {
		return fmt.Errorf("chat upsert: user id required")
	}

	body, err := json.Marshal(map[string]map[string]User{
		"users": {user.ID: user},
	})
	if err != nil {
		return fmt.Errorf("chat upsert: encode: %w", err)
	}

	serverToken, err := c.serverToken()
	if err != nil {
		return fmt.Errorf("chat upsert: %w", err)
	}

	url := fmt.Sprintf("%s/users?api_key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chat upsert: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", serverToken)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chat upsert: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// CreateToken issues the opaque credential the client uses to authenticate
// directly to the chat transport. It never touches the network: tokens are
// signed locally with the API secret.
func (c *Client) CreateToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("chat token: user id required")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
	})
	signed, err := token.SignedString([]byte(c.apiSecret))
	if err != nil {
		return "", fmt.Errorf("chat token: %w", err)
	}
	return signed, nil
}

func (c *Client) serverToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
	})
	return token.SignedString([]byte(c.apiSecret))
}
