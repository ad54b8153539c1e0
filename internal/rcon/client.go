package rcon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode"
)

// Client translates domain intents into wire commands over a Transport.
//
// It adds no error kinds of its own; transport errors propagate unchanged so
// callers can distinguish configuration, timeout, and connection failures.
type Client struct {
	transport  *Transport
	silentGive bool
}

// ClientOption configures optional client behavior.
type ClientOption func(*Client)

// WithSilentGive selects between the silentgive plugin verb (no in-game chat
// notification) and the stock inventory.giveto fallback. The choice is pure
// configuration; it never varies at runtime.
func WithSilentGive(enabled bool) ClientOption {
	return func(c *Client) {
		c.silentGive = enabled
	}
}

// NewClient wraps a transport with typed game-server operations.
func NewClient(transport *Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport:  transport,
		silentGive: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Configured reports whether the underlying transport has a credential.
// It never touches the network.
func (c *Client) Configured() bool {
	return c.transport.Configured()
}

// playerListEntry is one record in the playerlist JSON response.
type playerListEntry struct {
	SteamID     string `json:"SteamID"`
	DisplayName string `json:"DisplayName"`
}

// PlayerOnline reports whether the player is currently on the game server.
//
// The playerlist response is a JSON array on stock builds. Some modded builds
// return a plain-text roster instead; for those the steam id is matched
// against whole tokens so one id can never match as a prefix of another.
func (c *Client) PlayerOnline(ctx context.Context, steamID string) (bool, error) {
	resp, err := c.transport.Call(ctx, "playerlist")
	if err != nil {
		return false, err
	}

	var players []playerListEntry
	if jsonErr := json.Unmarshal([]byte(resp), &players); jsonErr == nil {
		for _, p := range players {
			if p.SteamID == steamID {
				return true, nil
			}
		}
		return false, nil
	}

	return containsToken(resp, steamID), nil
}

// GiveItem grants quantity units of itemCode to the player and returns the
// server's raw textual response.
func (c *Client) GiveItem(ctx context.Context, steamID, itemCode string, quantity int) (string, error) {
	verb := "inventory.giveto"
	if c.silentGive {
		verb = "silentgive"
	}
	command := fmt.Sprintf("%s %s %s %d", verb, steamID, itemCode, quantity)

	log.Printf("rcon: -> %s", command)
	resp, err := c.transport.Call(ctx, command)
	if err != nil {
		return "", err
	}
	log.Printf("rcon: <- %s", resp)
	return resp, nil
}

// containsToken reports whether token appears in s as a whole alphanumeric
// token rather than an arbitrary substring.
func containsToken(s, token string) bool {
	if token == "" {
		return false
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, field := range fields {
		if field == token {
			return true
		}
	}
	return false
}
