// Locker API client: request plumbing shared by the api, library and upload surfaces.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ibup/internal/shared"
)

// Identity is the fixed client identification payload the protocol requires on every API call.
type Identity struct {
	AppID      int
	Version    string
	Client     string
	DeviceName string
	UserAgent  string
}

// Client talks to the locker's three API surfaces.
//
// It holds no authentication state: callers pass the [Session] returned by
// [Client.Login] into every authenticated call.
type Client struct {
	apiURL     string
	libraryURL string
	uploadURL  string
	identity   Identity
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a client from the service and client sections of config.
//
// A nil config uses [shared.DefaultConfig], a nil http client uses [http.DefaultClient]
// and a nil logger discards output.
func NewClient(config *shared.Config, httpClient *http.Client, logger *log.Logger) *Client {
	if config == nil {
		config = shared.DefaultConfig()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Client{
		apiURL:     config.Service.APIURL,
		libraryURL: config.Service.LibraryURL,
		uploadURL:  config.Service.UploadURL,
		identity: Identity{
			AppID:      config.Client.AppID,
			Version:    config.Client.Version,
			Client:     config.Client.Name,
			DeviceName: config.Client.DeviceName,
			UserAgent:  config.Client.UserAgent,
		},
		httpClient: httpClient,
		logger:     logger,
	}
}

// Identity returns the identification payload sent with every call.
func (c *Client) Identity() Identity {
	return c.identity
}

// apiRequest posts a JSON "mode" call to the control API.
//
// The body merges mode, args, the identification payload and, when sess is valid, the credentials.
func (c *Client) apiRequest(ctx context.Context, sess Session, mode string, args map[string]any, check bool) (*Response, error) {
	payload := map[string]any{"mode": mode}
	for k, v := range args {
		payload[k] = v
	}
	payload["app_id"] = c.identity.AppID
	payload["version"] = c.identity.Version
	payload["client"] = c.identity.Client
	payload["device_name"] = c.identity.DeviceName
	payload["user_agent"] = c.identity.UserAgent

	return c.postJSON(ctx, c.apiURL, sess, payload, check)
}

// libraryRequest posts the credentials to the library API.
func (c *Client) libraryRequest(ctx context.Context, sess Session) (*Response, error) {
	return c.postJSON(ctx, c.libraryURL, sess, map[string]any{}, true)
}

func (c *Client) postJSON(ctx context.Context, url string, sess Session, payload map[string]any, check bool) (*Response, error) {
	if sess.Valid() {
		payload["user_id"] = sess.UserID
		payload["token"] = sess.Token
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, check)
}

// do sends req and decodes the common envelope.
//
// Transport failures wrap [shared.ErrAPIRequest] and non-2xx statuses wrap
// [shared.ErrUnexpectedStatus]. With check set, a missing "result" key is
// [shared.ErrMissingResult] and "result": false is [shared.ErrRequestRejected].
// The decoded response is returned alongside protocol errors for diagnostics.
func (c *Client) do(req *http.Request, check bool) (*Response, error) {
	req.Header.Set("User-Agent", c.identity.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	c.logger.Debug("response", "url", req.URL.String(), "status", resp.StatusCode, "body", truncate(body, 2048))

	out := &Response{StatusCode: resp.StatusCode, Body: body}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, fmt.Errorf("%w: %d", shared.ErrUnexpectedStatus, resp.StatusCode)
	}

	var envelope struct {
		Result  *bool           `json:"result"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return out, fmt.Errorf("%w: %v", shared.ErrMalformedBody, err)
	}

	if envelope.Result != nil {
		out.HasResult = true
		out.Result = *envelope.Result
	}
	out.Message = rawText(envelope.Message)

	if check {
		if !out.HasResult {
			return out, fmt.Errorf("%w, this may indicate the client needs to be updated", shared.ErrMissingResult)
		}
		if !out.Result {
			return out, fmt.Errorf("%w: %s", shared.ErrRequestRejected, truncate(body, 512))
		}
	}

	return out, nil
}

// decode unmarshals the raw body of resp into v.
func decode(resp *Response, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedBody, err)
	}
	return nil
}

// rawText renders a JSON value as text: strings unquoted, anything else verbatim.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
