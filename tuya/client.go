package tuya

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"smarthome-go-api/metrics"
)

const (
	tokenPath  = "/v1.0/token?grant_type=1"
	signMethod = "HMAC-SHA256"
)

// errTokenRejected is internal: the cloud refused a token the manager still
// considered valid. The client invalidates and retries exactly once.
var errTokenRejected = errors.New("tuya: token rejected by cloud")

// envelope is the common response wrapper of the cloud API.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Result  json.RawMessage `json:"result"`
}

// Client performs signed calls against the device cloud for one credential.
// It composes the signing scheme with a TokenManager; instances are meant to
// be pooled per credential and reused across requests.
type Client struct {
	baseURL string
	cred    Credential
	http    *http.Client
	tokens  *TokenManager
	now     func() time.Time
	nonce   func() string
}

func NewClient(baseURL string, cred Credential, timeout time.Duration) *Client {
	c := &Client{
		baseURL: baseURL,
		cred:    cred,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
		nonce:   uuid.NewString,
	}
	c.tokens = newTokenManager(c.fetchToken)
	return c
}

// ListDevices returns the user's device inventory. An unexpected payload shape
// is treated as "no devices yet", not an error: the upstream absence-of-result
// convention overlaps with the empty-list case.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	env, err := c.call(ctx, http.MethodGet, "/v1.0/users/devices", nil)
	if err != nil {
		metrics.CloudRequest("list_devices", "error")
		return nil, err
	}
	metrics.CloudRequest("list_devices", "ok")

	var devices []Device
	if env == nil || !env.Success || json.Unmarshal(env.Result, &devices) != nil {
		return []Device{}, nil
	}
	return devices, nil
}

// GetDeviceStatus returns the live data points of one device. Empty on an
// unexpected payload, same convention as ListDevices.
func (c *Client) GetDeviceStatus(ctx context.Context, deviceID string) ([]Property, error) {
	env, err := c.call(ctx, http.MethodGet, "/v1.0/devices/"+deviceID+"/status", nil)
	if err != nil {
		metrics.CloudRequest("device_status", "error")
		return nil, err
	}
	metrics.CloudRequest("device_status", "ok")

	var props []Property
	if env == nil || !env.Success || json.Unmarshal(env.Result, &props) != nil {
		return []Property{}, nil
	}
	return props, nil
}

// SendCommand issues device commands. Fails with ErrCommand on rejection or a
// malformed response; the caller decides whether to retry.
func (c *Client) SendCommand(ctx context.Context, deviceID string, commands []Property) error {
	body, err := json.Marshal(map[string][]Property{"commands": commands})
	if err != nil {
		return fmt.Errorf("marshal commands: %w", err)
	}

	env, err := c.call(ctx, http.MethodPost, "/v1.0/devices/"+deviceID+"/commands", body)
	if err != nil {
		metrics.CloudRequest("send_command", "error")
		return err
	}
	if env == nil {
		metrics.CloudRequest("send_command", "error")
		return fmt.Errorf("%w: malformed response", ErrCommand)
	}
	if !env.Success {
		metrics.CloudRequest("send_command", "rejected")
		return fmt.Errorf("%w: %v", ErrCommand, &APIError{Code: env.Code, Msg: env.Msg})
	}
	metrics.CloudRequest("send_command", "ok")
	return nil
}

// call performs one signed business call. If the cloud rejects the attached
// token despite the manager considering it valid, the token is invalidated and
// the call retried exactly once with a fresh one.
func (c *Client) call(ctx context.Context, method, pathWithQuery string, body []byte) (*envelope, error) {
	env, err := c.doSigned(ctx, method, pathWithQuery, body)
	if errors.Is(err, errTokenRejected) {
		c.tokens.Invalidate()
		env, err = c.doSigned(ctx, method, pathWithQuery, body)
		if errors.Is(err, errTokenRejected) {
			return nil, fmt.Errorf("%w: token rejected after refresh", ErrAuth)
		}
	}
	return env, err
}

func (c *Client) doSigned(ctx context.Context, method, pathWithQuery string, body []byte) (*envelope, error) {
	accessToken, err := c.tokens.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathWithQuery, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	t := strconv.FormatInt(c.now().UnixMilli(), 10)
	nonce := c.nonce()
	req.Header.Set("client_id", c.cred.ClientID)
	req.Header.Set("access_token", accessToken)
	req.Header.Set("sign", SignRequest(c.cred.ClientID, c.cred.ClientSecret, method, pathWithQuery, string(body), t, nonce))
	req.Header.Set("t", t)
	req.Header.Set("sign_method", signMethod)
	req.Header.Set("nonce", nonce)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errTokenRejected
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: cloud status %d", ErrNetwork, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// The op methods decide how to treat unparseable payloads.
		return nil, nil
	}
	if !env.Success && isAuthRejectCode(env.Code) {
		return nil, errTokenRejected
	}
	return &env, nil
}

// fetchToken performs the token-acquisition call using the simple signing
// mode. Any failure, transport included, is an auth failure: the credential
// could not be exchanged for a token.
func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tokenPath, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	t := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set("client_id", c.cred.ClientID)
	req.Header.Set("sign", SignToken(c.cred.ClientID, c.cred.ClientSecret, t))
	req.Header.Set("t", t)
	req.Header.Set("sign_method", signMethod)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.TokenRefresh("error")
		return "", 0, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Success bool   `json:"success"`
		Code    int    `json:"code"`
		Msg     string `json:"msg"`
		Result  struct {
			AccessToken string `json:"access_token"`
			ExpireTime  int64  `json:"expire_time"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.TokenRefresh("error")
		return "", 0, fmt.Errorf("%w: decode token response: %v", ErrAuth, err)
	}
	if !payload.Success || payload.Result.AccessToken == "" {
		metrics.TokenRefresh("rejected")
		return "", 0, fmt.Errorf("%w: %v", ErrAuth, &APIError{Code: payload.Code, Msg: payload.Msg})
	}

	metrics.TokenRefresh("ok")
	return payload.Result.AccessToken, time.Duration(payload.Result.ExpireTime) * time.Second, nil
}
