// Package remote is the HTTP client for the task and profile API. It is the
// only place that knows about the wire format.
package remote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/23CSBS271/focus-flow/domain"
)

const (
	tracerName   = "github.com/23CSBS271/focus-flow/remote"
	maxErrorBody = 512
	maxBody      = 4 << 20
)

// Client talks to the remote task API.
type Client struct {
	baseURL string
	bearer  string
	http    *http.Client
	log     *log.Logger
}

type Option func(*Client)

// WithBearer sets the token sent in the Authorization header.
func WithBearer(token string) Option {
	return func(c *Client) { c.bearer = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTasks returns every task of userID.
func (c *Client) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	var env tasksEnvelope
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, "fetch tasks", http.MethodGet, "/tasks?"+q.Encode(), nil, &env); err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(env.Tasks))
	for _, w := range env.Tasks {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// CreateTask posts a new task and returns the server's copy.
func (c *Client) CreateTask(ctx context.Context, userID string, in domain.TaskInput) (domain.Task, error) {
	var env taskEnvelope
	if err := c.do(ctx, "create task", http.MethodPost, "/tasks", newCreateRequest(userID, in), &env); err != nil {
		return domain.Task{}, err
	}
	return env.Task.toDomain(), nil
}

// UpdateTask sends the set fields of patch for id.
func (c *Client) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (domain.Task, error) {
	var env taskEnvelope
	if err := c.do(ctx, "update task", http.MethodPut, "/tasks", updateBody(userID, id, patch), &env); err != nil {
		return domain.Task{}, err
	}
	return env.Task.toDomain(), nil
}

func (c *Client) DeleteTask(ctx context.Context, userID, id string) error {
	return c.do(ctx, "delete task", http.MethodDelete, "/tasks", deleteRequest{ID: id, UserID: userID}, nil)
}

// FetchProfile returns the display profile of userID.
func (c *Client) FetchProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	var env profileEnvelope
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, "fetch profile", http.MethodGet, "/user/profile?"+q.Encode(), nil, &env); err != nil {
		return domain.UserProfile{}, err
	}
	return env.User.toDomain(), nil
}

// UpdateProfile changes the name and avatar of userID.
func (c *Client) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (domain.UserProfile, error) {
	var env profileEnvelope
	body := profileUpdateRequest{UserID: userID, Name: patch.Name, Avatar: patch.Avatar}
	if err := c.do(ctx, "update profile", http.MethodPut, "/user/profile", body, &env); err != nil {
		return domain.UserProfile{}, err
	}
	return env.User.toDomain(), nil
}

// do performs one JSON round trip. Every failure is returned as a
// *domain.FetchError tagged with op.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	route := path
	if i := strings.IndexByte(route, '?'); i >= 0 {
		route = route[:i]
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		))
	start := time.Now()
	status := 0
	defer func() {
		fields := log.Fields{
			"op":          op,
			"method":      method,
			"route":       route,
			"status":      status,
			"duration_ms": float64(time.Since(start)) / float64(time.Millisecond),
		}
		if status != 0 {
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.log.WithFields(fields).WithError(err).Warn("remote call failed")
		} else {
			span.SetStatus(codes.Ok, "")
			c.log.WithFields(fields).Debug("remote call")
		}
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		payload, merr := sonic.ConfigStd.Marshal(body)
		if merr != nil {
			return &domain.FetchError{Op: op, Err: merr}
		}
		reader = bytes.NewReader(payload)
	}
	req, rerr := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if rerr != nil {
		return &domain.FetchError{Op: op, Err: rerr}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, herr := c.http.Do(req)
	if herr != nil {
		return &domain.FetchError{Op: op, Err: herr}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if status < 200 || status > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.FetchError{Op: op, StatusCode: status, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || status == http.StatusNoContent {
		return nil
	}
	if derr := sonic.ConfigStd.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); derr != nil {
		return &domain.FetchError{Op: op, StatusCode: status, Err: derr}
	}
	return nil
}

// spanName turns "fetch tasks" into "focusflow.remote.fetch_tasks".
func spanName(op string) string {
	return "focusflow.remote." + strings.ReplaceAll(op, " ", "_")
}
