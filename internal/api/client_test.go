package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whatsapp-agent/internal/account"
	"whatsapp-agent/internal/agent"
	"whatsapp-agent/internal/config"
	"whatsapp-agent/internal/conversation"
)

// testServer runs the full router under httptest with a signed-out account store
type testServer struct {
	*httptest.Server
	Runtime *agent.Runtime
	Store   *account.Store
	Events  *Events
	Client  *testClient
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	demo := config.DefaultAccountsFile()
	events := NewEvents()
	runtime := agent.NewRuntime(conversation.WithEventSink(events))
	store := account.NewStore(account.NewMemorySession(), demo.Users, demo.Password, demo.Accounts)
	store.OnCurrentChange(runtime.ApplyAccount)

	srv := httptest.NewServer(NewRouter(runtime, store, events, ""))
	t.Cleanup(srv.Close)

	return &testServer{
		Server:  srv,
		Runtime: runtime,
		Store:   store,
		Events:  events,
		Client:  newTestClient(srv.URL),
	}
}

// setupActiveServer signs the admin in and switches the agent on
func setupActiveServer(t *testing.T) *testServer {
	t.Helper()
	s := setupTestServer(t)
	if _, err := s.Store.Login("admin@example.com", "password"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	s.Runtime.SetActive(true)
	return s
}

type testClient struct {
	baseURL    string
	httpClient *http.Client
}

func newTestClient(baseURL string) *testClient {
	return &testClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *testClient) GET(path string) (*http.Response, error) {
	return c.httpClient.Get(c.baseURL + path)
}

func (c *testClient) POST(path string, body any) (*http.Response, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *testClient) PUT(path string, body any) (*http.Response, error) {
	return c.do(http.MethodPut, path, body)
}

func (c *testClient) DELETE(path string) (*http.Response, error) {
	return c.do(http.MethodDelete, path, nil)
}

func (c *testClient) do(method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// readJSON decodes the response body into target and closes it
func readJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	return json.Unmarshal(data, target)
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}

type sseEvent struct {
	Type string
	Data string
}

// sseConnection reads events from a live SSE response
type sseConnection struct {
	resp    *http.Response
	eventCh chan sseEvent
	cancel  context.CancelFunc
}

func connectSSE(ctx context.Context, url string) (*sseConnection, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	conn := &sseConnection{resp: resp, eventCh: make(chan sseEvent, 16), cancel: cancel}
	go conn.readEvents()
	return conn, nil
}

func (c *sseConnection) readEvents() {
	defer close(c.eventCh)

	scanner := bufio.NewScanner(c.resp.Body)
	var eventType string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				c.eventCh <- sseEvent{Type: eventType, Data: strings.TrimSpace(data.String())}
			}
			eventType = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimPrefix(line, "data:"))
		}
	}
}

func (c *sseConnection) waitFor(eventType string, timeout time.Duration) (*sseEvent, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return nil, fmt.Errorf("connection closed")
			}
			if event.Type == eventType {
				return &event, nil
			}
		case <-timer.C:
			return nil, fmt.Errorf("timeout waiting for event type: %s", eventType)
		}
	}
}

func (c *sseConnection) Close() {
	c.cancel()
	c.resp.Body.Close()
}
