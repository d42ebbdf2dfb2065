package protocol

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	loginPath = "/apiv2/login"
	sqlPath   = "/api/v3/sql"
	jobPath   = "/api/v3/job/"

	// authScheme prefixes the bearer token in the Authorization header.
	authScheme = "_dremio"

	defaultQueryTimeout = 60 * time.Minute
	defaultPollInterval = time.Second
)

// RESTEngine executes queries through the engine's REST API: each statement
// is submitted as an asynchronous job whose status is polled until a
// terminal state or the per-query timeout. Queries run truly concurrently,
// bounded only by the caller's worker pool.
type RESTEngine struct {
	client       *http.Client
	baseURL      string
	token        string
	timeout      time.Duration
	pollInterval time.Duration
	log          *logrus.Entry
}

// NewRESTEngine authenticates against the API and returns an engine holding
// the bearer token. An authentication failure is fatal for the run.
func NewRESTEngine(ctx context.Context, opts Options) (*RESTEngine, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.SkipTLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	e := &RESTEngine{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		baseURL:      strings.TrimSuffix(opts.URL, "/"),
		timeout:      timeout,
		pollInterval: defaultPollInterval,
		log:          logrus.WithField("protocol", "http"),
	}

	if err := e.login(ctx, opts.User, opts.Password); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *RESTEngine) login(ctx context.Context, user, password string) error {
	body, err := e.post(ctx, loginPath, map[string]interface{}{
		"userName": user,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	token := gjson.GetBytes(body, "token").String()
	if token == "" {
		return fmt.Errorf("authentication failed: no token in login response")
	}
	e.token = token
	e.log.Debug("authenticated")
	return nil
}

// Execute submits the statement as a job and polls it to completion.
func (e *RESTEngine) Execute(ctx context.Context, sql string, contextPath []string) error {
	id, err := e.submit(ctx, sql, contextPath)
	if err != nil {
		return err
	}
	return e.awaitJob(ctx, id)
}

func (e *RESTEngine) submit(ctx context.Context, sql string, contextPath []string) (string, error) {
	payload := map[string]interface{}{"sql": sql}
	if len(contextPath) > 0 {
		payload["context"] = contextPath
	}

	body, err := e.post(ctx, sqlPath, payload)
	if err != nil {
		return "", fmt.Errorf("job submission failed: %w", err)
	}

	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", fmt.Errorf("job submission returned no job id")
	}
	return id, nil
}

// awaitJob polls job status at a fixed interval until a terminal state or
// the configured timeout. A FAILED job whose message says the target object
// already exists counts as success, so idempotent DDL retries don't inflate
// the failure rate.
func (e *RESTEngine) awaitJob(ctx context.Context, id string) error {
	deadline := time.Now().Add(e.timeout)

	for {
		body, err := e.get(ctx, jobPath+id)
		if err != nil {
			return fmt.Errorf("polling job %s: %w", id, err)
		}

		state := gjson.GetBytes(body, "jobState").String()
		switch state {
		case "COMPLETED":
			return nil
		case "FAILED":
			msg := gjson.GetBytes(body, "errorMessage").String()
			if strings.Contains(msg, "already exists.") {
				return nil
			}
			return fmt.Errorf("job %s failed: %s", id, msg)
		case "CANCELED", "INVALID_STATE", "CANCELLATION_REQUESTED":
			return fmt.Errorf("job %s ended in state %s", id, state)
		case "":
			return fmt.Errorf("job %s returned no job state", id)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("job %s timed out after %s in state %s", id, e.timeout, state)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}

func (e *RESTEngine) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *RESTEngine) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return e.do(req)
}

func (e *RESTEngine) do(req *http.Request) ([]byte, error) {
	if e.token != "" {
		req.Header.Set("Authorization", authScheme+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Close releases idle connections. In-flight polls are bounded by their own
// contexts.
func (e *RESTEngine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

var _ Engine = (*RESTEngine)(nil)
