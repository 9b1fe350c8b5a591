// test_helpers.go - integration suite wiring the real router to a temp SQLite store
package testing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kitchenops/internal/api"
	"kitchenops/internal/auth"
	"kitchenops/internal/data"
	"kitchenops/internal/prep"
	"kitchenops/internal/realtime"
)

var testSecret = []byte("kitchenops-test-secret")

// TestConfig holds configuration for test runs
type TestConfig struct {
	DBPath         string
	RequestTimeout time.Duration
	PingInterval   time.Duration
}

// TestSuite provides utilities for integration testing
type TestSuite struct {
	Config TestConfig
	Server *httptest.Server
	Client *http.Client
	Store  *data.Store
	Broker *realtime.Broker

	// Bearer tokens for seeded profiles, keyed by role.
	Tokens   map[string]string
	Profiles map[string]*data.Profile
}

// NewTestSuite creates a migrated store, seeded profiles and a running server.
func NewTestSuite(t *testing.T) *TestSuite {
	t.Helper()

	config := TestConfig{
		DBPath:         filepath.Join(t.TempDir(), "kitchenops_test.db"),
		RequestTimeout: 5 * time.Second,
		PingInterval:   50 * time.Millisecond,
	}

	store, err := data.Open(data.SQLite, config.DBPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	broker := realtime.NewBroker()
	broker.SetPingInterval(config.PingInterval)

	router := api.NewRouter(api.Deps{
		Store:     store,
		Broker:    broker,
		Generator: prep.NewGenerator(store, broker),
		Tasks:     prep.NewTaskService(store, broker),
		Guard:     auth.NewGuard(testSecret, store),
	}, api.Options{RequestTimeout: config.RequestTimeout})

	suite := &TestSuite{
		Config:   config,
		Server:   httptest.NewServer(router),
		Client:   &http.Client{Timeout: 10 * time.Second},
		Store:    store,
		Broker:   broker,
		Tokens:   make(map[string]string),
		Profiles: make(map[string]*data.Profile),
	}
	t.Cleanup(suite.Cleanup)

	for _, role := range []string{data.RoleAdmin, data.RoleChef, data.RoleCook} {
		suite.seedProfile(t, role)
	}
	return suite
}

func (ts *TestSuite) seedProfile(t *testing.T, role string) {
	t.Helper()
	name := "Test " + role
	profile, err := ts.Store.InsertProfile(context.Background(), data.NewProfile{FullName: &name, Role: role})
	ts.AssertNoError(t, err)

	token, err := auth.GenerateToken(profile.ID, testSecret, time.Hour)
	ts.AssertNoError(t, err)

	ts.Profiles[role] = profile
	ts.Tokens[role] = token
}

// Cleanup stops the server before closing the database.
func (ts *TestSuite) Cleanup() {
	ts.Broker.Close()
	ts.Server.Close()
	if err := ts.Store.Close(); err != nil {
		fmt.Printf("Warning: failed to close test database: %v\n", err)
	}
}

// MakeAPIRequest sends a JSON request with an optional bearer token. A string
// body is sent verbatim.
func (ts *TestSuite) MakeAPIRequest(method, path string, body interface{}, token string) (*http.Response, error) {
	var reqBody io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = strings.NewReader(b)
	default:
		bodyBytes, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.Client.Do(req)
}

// Envelope is the decoded response body.
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Error      *ErrorBody      `json:"error"`
	Pagination *Pagination     `json:"pagination"`
}

type ErrorBody struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Do sends a request, checks the status and decodes the envelope. out, when
// non-nil, receives the envelope's data member.
func (ts *TestSuite) Do(t *testing.T, method, path string, body interface{}, token string, status int, out interface{}) Envelope {
	t.Helper()
	resp, err := ts.MakeAPIRequest(method, path, body, token)
	ts.AssertNoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	ts.AssertNoError(t, err)
	if resp.StatusCode != status {
		t.Fatalf("%s %s: expected status code %d, got %d: %s", method, path, status, resp.StatusCode, raw)
	}

	var env Envelope
	if len(raw) == 0 {
		return env
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: invalid JSON response: %v: %s", method, path, err, raw)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("%s %s: failed to decode data: %v", method, path, err)
		}
	}
	return env
}

// OpenStream connects to the prep-task event stream for date and returns a
// reader positioned after the response headers.
func (ts *TestSuite) OpenStream(t *testing.T, date string) (*bufio.Reader, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.Server.URL+"/api/realtime/prep-tasks?date="+date, nil)
	ts.AssertNoError(t, err)

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		cancel()
		t.Fatalf("Failed to open event stream: %v", err)
	}
	ts.AssertStatusCode(t, resp, http.StatusOK)

	return bufio.NewReader(resp.Body), func() {
		cancel()
		resp.Body.Close()
	}
}

// NextEvent reads lines until a named event and returns its name. Comment
// lines such as pings are skipped.
func NextEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Event stream ended: %v", err)
		}
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			return name
		}
	}
}

// AssertStatusCode checks if response has expected status code
func (ts *TestSuite) AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertNoError fails the test if error is not nil
func (ts *TestSuite) AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// WaitForCondition waits for a condition to be true or timeout
func (ts *TestSuite) WaitForCondition(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
