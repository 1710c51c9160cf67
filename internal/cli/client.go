package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ErrAuthFailed is returned when the server rejects the admin password
var ErrAuthFailed = errors.New("admin authentication failed")

// Client talks to the HTTP API and the websocket endpoint
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
	}
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Get performs a GET request and decodes the JSON body into result
func (c *Client) Get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s", errResp.Error.String())
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// websocketURL maps the server URL onto the /ws endpoint
func (c *Client) websocketURL() string {
	url := c.baseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws"
}

// Dial opens a websocket session with the coordinator
func (c *Client) Dial(ctx context.Context) (*Session, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.websocketURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return &Session{conn: conn, timeout: c.timeout}, nil
}

// Message is one server message: its type tag and the raw payload
type Message struct {
	Type string
	Raw  json.RawMessage
}

// Session is an open websocket connection
type Session struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// Send writes msg as a JSON text frame
func (s *Session) Send(msg any) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

// Next blocks for the next message. A zero timeout waits indefinitely.
func (s *Session) Next(timeout time.Duration) (Message, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return Message{}, err
	}

	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return Message{}, err
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Message{}, fmt.Errorf("failed to parse message: %w", err)
	}
	return Message{Type: head.Type, Raw: data}, nil
}

// Await reads until a message of one of the given types arrives. Error and
// auth_failed messages end the wait with an error.
func (s *Session) Await(types ...string) (Message, error) {
	for {
		msg, err := s.Next(s.timeout)
		if err != nil {
			return Message{}, err
		}
		switch {
		case slices.Contains(types, msg.Type):
			return msg, nil
		case msg.Type == "auth_failed":
			return Message{}, ErrAuthFailed
		case msg.Type == "error":
			var body struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(msg.Raw, &body)
			return Message{}, fmt.Errorf("server error: %s", body.Message)
		}
	}
}

// Authenticate claims admin authority and consumes the state snapshot that
// follows, which ends with finance_update
func (s *Session) Authenticate(password string) error {
	if err := s.Send(map[string]string{"type": "admin_auth", "password": password}); err != nil {
		return err
	}
	if _, err := s.Await("auth_success"); err != nil {
		return err
	}
	_, err := s.Await("finance_update")
	return err
}

// Close sends a normal close frame and closes the connection
func (s *Session) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
