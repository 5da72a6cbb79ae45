// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
)

// DefaultTimeout bounds a single gateway round trip
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 4 << 20

var ErrMalformedResponse = errors.New("malformed gateway response")

// Client talks to one gateway. It never retries and never caches.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        log.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.timeout = d
	}
}

func WithLogger(l log.Logger) ClientOption {
	return func(client *Client) {
		client.log = l
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		log:        log.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Reencrypt performs one POST /reencrypt round trip
func (c *Client) Reencrypt(ctx context.Context, req *ReencryptRequest, requestID string) (*ReencryptResponse, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodPost, ReencryptPath, requestID, req, &raw); err != nil {
		return nil, err
	}

	value, err := parseValue(raw["value"])
	if err != nil {
		return nil, err
	}
	resp := &ReencryptResponse{
		Value: value,
		Raw:   raw,
	}
	// Only value is guaranteed. A signature in another encoding stays in Raw.
	if s, ok := raw["signature"].(string); ok {
		if sig, err := hexutil.Decode(s); err == nil {
			resp.Signature = sig
		}
	}
	return resp, nil
}

// Keys fetches the network public key
func (c *Client) Keys(ctx context.Context) (*KeysResponse, error) {
	var resp KeysResponse
	if err := c.do(ctx, http.MethodGet, KeysPath, "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.PublicKey == "" {
		return nil, fmt.Errorf("%w: missing publicKey", ErrMalformedResponse)
	}
	return &resp, nil
}

// RegisterInput submits an input proof so that the allowed accounts may
// later reencrypt its handles
func (c *Client) RegisterInput(ctx context.Context, req *InputsRequest) (*InputsResponse, error) {
	var resp InputsResponse
	if err := c.do(ctx, http.MethodPost, InputsPath, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, requestID string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if requestID != "" {
		httpReq.Header.Set(RequestIDHeader, requestID)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		c.log.Debug("gateway request failed",
			log.String("url", url),
			log.String("requestID", requestID),
			log.String("status", httpResp.Status),
		)
		statusErr := &StatusError{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
		}
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil {
			statusErr.Message = errResp.Error
		}
		return statusErr
	}

	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// parseValue accepts the value as a base-10 string, a 0x-prefixed hex
// string or a JSON number. Leading zeros are decimal, not octal.
func parseValue(v any) (*big.Int, error) {
	var s string
	switch v := v.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case nil:
		return nil, fmt.Errorf("%w: missing value", ErrMalformedResponse)
	default:
		return nil, fmt.Errorf("%w: value has type %T", ErrMalformedResponse, v)
	}

	var (
		value *big.Int
		ok    bool
	)
	if digits, isHex := strings.CutPrefix(s, "0x"); isHex {
		value, ok = new(big.Int).SetString(digits, 16)
	} else {
		value, ok = new(big.Int).SetString(s, 10)
	}
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("%w: value %q", ErrMalformedResponse, s)
	}
	return value, nil
}
