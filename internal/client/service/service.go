// Package service implements the HTTP client for the keydir server:
// challenge/response authentication plus the registry operations.
package service

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
)

// Client talks to a keydir server over HTTP. Authenticate must be called
// before Register or UpdateKey; Lookup and Ping work unauthenticated.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	accessToken string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type challengeResponse struct {
	ChallengeID string `json:"challenge_id"`
	Nonce       string `json:"nonce"`
}

type tokenRequest struct {
	ChallengeID string `json:"challenge_id"`
	PublicKey   string `json:"public_key"`
	Signature   string `json:"signature"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type registerRequest struct {
	Username      string `json:"username"`
	EncryptionKey string `json:"encryption_key"`
}

type updateKeyRequest struct {
	EncryptionKey string `json:"encryption_key"`
}

type entryResponse struct {
	Username      string `json:"username"`
	Owner         string `json:"owner"`
	EncryptionKey string `json:"encryption_key"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Authenticate runs the challenge/response flow with priv and stores the
// issued access token for subsequent mutating calls.
func (c *Client) Authenticate(ctx context.Context, priv ed25519.PrivateKey) error {
	var ch challengeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/challenge", nil, &ch); err != nil {
		return err
	}

	nonce, err := hex.DecodeString(ch.Nonce)
	if err != nil {
		return fmt.Errorf("challenge nonce: %w", err)
	}

	pub := priv.Public().(ed25519.PublicKey)
	req := tokenRequest{
		ChallengeID: ch.ChallengeID,
		PublicKey:   hex.EncodeToString(pub),
		Signature:   hex.EncodeToString(ed25519.Sign(priv, nonce)),
	}

	var tok tokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/token", req, &tok); err != nil {
		return err
	}

	c.accessToken = tok.AccessToken
	return nil
}

// Register claims username for the authenticated signer with the given
// encryption key.
func (c *Client) Register(ctx context.Context, username string, key [keydir.KeySize]byte) (*keydir.Entry, error) {
	req := registerRequest{Username: username, EncryptionKey: hex.EncodeToString(key[:])}
	var resp entryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/entries", req, &resp); err != nil {
		return nil, err
	}
	return resp.toEntry()
}

// Lookup fetches the entry registered under username.
func (c *Client) Lookup(ctx context.Context, username string) (*keydir.Entry, error) {
	var resp entryResponse
	if err := c.do(ctx, http.MethodGet, "/v1/entries/"+username, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toEntry()
}

// UpdateKey replaces username's encryption key. The server enforces that
// the authenticated signer owns the entry.
func (c *Client) UpdateKey(ctx context.Context, username string, key [keydir.KeySize]byte) (*keydir.Entry, error) {
	req := updateKeyRequest{EncryptionKey: hex.EncodeToString(key[:])}
	var resp entryResponse
	if err := c.do(ctx, http.MethodPut, "/v1/entries/"+username+"/key", req, &resp); err != nil {
		return nil, err
	}
	return resp.toEntry()
}

// Ping checks server reachability.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/ping", nil, nil)
}

func (r *entryResponse) toEntry() (*keydir.Entry, error) {
	owner, err := keydir.OwnerFromHex(r.Owner)
	if err != nil {
		return nil, fmt.Errorf("entry owner: %w", err)
	}

	raw, err := hex.DecodeString(r.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("entry key: %w", err)
	}
	key, err := keydir.KeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("entry key: %w", err)
	}

	return &keydir.Entry{Username: r.Username, Owner: owner, EncryptionKey: key}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiError maps an HTTP error response to the shared sentinel errors so
// callers can branch with errors.Is.
func apiError(status int, payload []byte) error {
	var er errorResponse
	_ = json.Unmarshal(payload, &er)

	var sentinel error
	switch {
	case status == http.StatusConflict:
		sentinel = common.ErrorAlreadyExists
	case status == http.StatusNotFound:
		sentinel = common.ErrorNotFound
	case status == http.StatusForbidden:
		sentinel = common.ErrorUnauthorized
	case status == http.StatusUnauthorized:
		sentinel = common.ErrInvalidToken
	case status == http.StatusBadRequest && er.Error == "invalid_key":
		sentinel = common.ErrInvalidKey
	case status == http.StatusBadRequest:
		sentinel = common.ErrInvalidUsername
	default:
		sentinel = common.ErrorInternal
	}

	if er.Message != "" {
		return fmt.Errorf("%s: %w", er.Message, sentinel)
	}
	return fmt.Errorf("server returned %d: %w", status, sentinel)
}
