package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *apiError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("http %d: %s (request %s)", e.Status, msg, e.RequestID)
	}
	return fmt.Sprintf("http %d: %s", e.Status, msg)
}

// client talks to the service desk API with an optional token.
type client struct {
	base  string
	token string
	hc    *http.Client
}

func newClient(base, token string) *client {
	return &client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		hc:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends in as JSON (when non-nil) and decodes the response into out
// (when non-nil).
func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	if id, err := u.NewV4(); err == nil {
		req.Header.Set("X-Request-ID", id.String())
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		ae := &apiError{Status: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}
		var eb struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &eb) == nil {
			ae.Message = eb.Message
		}
		return ae
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// ---- wire shapes ----

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AccountType string `json:"account_type"`
	Address     string `json:"address,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
}

type loginResp struct {
	Valid bool   `json:"valid"`
	Token string `json:"token"`
}

type ticket struct {
	ID            int64      `json:"id"`
	Description   string     `json:"description"`
	Emergency     bool       `json:"emergency"`
	DateCompleted *time.Time `json:"date_completed"`
	Employee      *struct {
		ID        int64  `json:"id"`
		Specialty string `json:"specialty"`
		FullName  string `json:"full_name"`
	} `json:"employee"`
	Customer struct {
		ID       int64  `json:"id"`
		FullName string `json:"full_name"`
	} `json:"customer"`
}

// status mirrors the server's derived lifecycle status.
func (t ticket) status() string {
	switch {
	case t.Employee == nil && t.DateCompleted == nil:
		return "OPEN"
	case t.DateCompleted == nil:
		return "IN_PROGRESS"
	default:
		return "DONE"
	}
}
