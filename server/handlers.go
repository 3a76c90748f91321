// Package server is the reference implementation of the remote task API.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/23CSBS271/focus-flow/domain"
	"github.com/23CSBS271/focus-flow/storage"
)

const (
	maxRequestSize       = 64 << 10
	headerIdempotencyKey = "Idempotency-Key"
)

// Deps are the collaborators of the HTTP handlers. Auth, Deduper and Events
// are optional: a nil Auth trusts the userId sent by the client.
type Deps struct {
	Store   Storage
	Auth    Authenticator
	Deduper Deduper
	Events  *EventSender
	Logger  *log.Logger
	Now     func() time.Time
}

type handlers struct {
	Deps
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	if d.Logger == nil {
		d.Logger = log.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{Deps: d}
	e.GET("/tasks", h.getTasks)
	e.POST("/tasks", h.postTask)
	e.PUT("/tasks", h.putTask)
	e.DELETE("/tasks", h.deleteTask)
	e.GET("/user/profile", h.getProfile)
	e.PUT("/user/profile", h.putProfile)
	e.GET("/healthz", healthz)
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// begin opens the request span and swaps the traced context into c.
func (h *handlers) begin(c echo.Context, route string) (*requestMetrics, context.Context) {
	metrics, ctx := newRequestMetrics(c.Request().Context(), h.Logger, c.Request().Method, route)
	c.SetRequest(c.Request().WithContext(ctx))
	return metrics, ctx
}

// authenticate resolves the caller. With auth enabled the token subject wins
// and a conflicting claimed id is rejected.
func (h *handlers) authenticate(c echo.Context, metrics *requestMetrics, claimed string) (string, int, error) {
	start := time.Now()
	defer func() { metrics.ObserveAuth(time.Since(start)) }()

	if h.Auth == nil {
		if claimed == "" {
			return "", http.StatusBadRequest, errors.New("userId is required")
		}
		return claimed, 0, nil
	}
	token, err := bearerTokenFromHeader(c.Request().Header)
	if err != nil {
		return "", http.StatusUnauthorized, err
	}
	userID, err := h.Auth.UserIDFromBearer(token)
	if err != nil {
		return "", http.StatusUnauthorized, err
	}
	if claimed != "" && claimed != userID {
		return "", http.StatusForbidden, errors.New("userId does not match token")
	}
	return userID, 0, nil
}

func decodeBody(c echo.Context, out any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxRequestSize))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func (h *handlers) getTasks(c echo.Context) (err error) {
	metrics, ctx := h.begin(c, "/tasks")
	defer func() { metrics.Log(c.Response().Status, err) }()

	userID, status, authErr := h.authenticate(c, metrics, c.QueryParam("userId"))
	if authErr != nil {
		metrics.SetErrorStage("auth")
		return c.String(status, authErr.Error())
	}

	storeStart := time.Now()
	tasks, fetchErr := h.Store.ListTasks(ctx, userID)
	metrics.ObserveStore(time.Since(storeStart))
	if fetchErr != nil {
		metrics.SetErrorStage("storage")
		c.Logger().Error(fetchErr)
		return c.String(http.StatusInternalServerError, fetchErr.Error())
	}

	resp := tasksResponse{Tasks: make([]taskDoc, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, newTaskDoc(userID, t))
	}
	metrics.SetTasksReturned(len(resp.Tasks))
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) postTask(c echo.Context) (err error) {
	metrics, ctx := h.begin(c, "/tasks")
	defer func() { metrics.Log(c.Response().Status, err) }()

	var req createTaskRequest
	if decErr := decodeBody(c, &req); decErr != nil {
		metrics.SetErrorStage("decode")
		return c.String(http.StatusBadRequest, "invalid body")
	}
	userID, status, authErr := h.authenticate(c, metrics, req.UserID)
	if authErr != nil {
		metrics.SetErrorStage("auth")
		return c.String(status, authErr.Error())
	}
	in := req.input()
	if vErr := in.Validate(); vErr != nil {
		metrics.SetErrorStage("validate")
		return c.String(http.StatusBadRequest, vErr.Error())
	}
	in = in.Normalize()

	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	if key != "" && h.Deduper != nil {
		existing, reserved, dErr := h.Deduper.Reserve(ctx, userID, key)
		if dErr != nil {
			metrics.SetErrorStage("dedupe")
			c.Logger().Error(dErr)
			return c.String(http.StatusInternalServerError, "dedupe unavailable")
		}
		if !reserved {
			metrics.SetDuplicate()
			return c.JSON(http.StatusConflict, duplicateResponse{Error: "duplicate request", TaskID: existing})
		}
	}

	now := h.Now().UTC()
	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		Category:    in.Category,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	storeStart := time.Now()
	insErr := h.Store.InsertTask(ctx, userID, task)
	metrics.ObserveStore(time.Since(storeStart))
	if insErr != nil {
		if key != "" && h.Deduper != nil {
			if rErr := h.Deduper.Release(context.WithoutCancel(ctx), userID, key); rErr != nil {
				h.Logger.WithFields(log.Fields{"user": userID, "key": key}).WithError(rErr).Error("dedupe rollback failed")
			}
		}
		metrics.SetErrorStage("storage")
		c.Logger().Error(insErr)
		return c.String(http.StatusInternalServerError, insErr.Error())
	}

	if key != "" && h.Deduper != nil {
		if bErr := h.Deduper.Bind(context.WithoutCancel(ctx), userID, key, task.ID); bErr != nil {
			h.Logger.WithFields(log.Fields{"user": userID, "key": key, "taskId": task.ID}).WithError(bErr).Warn("dedupe bind failed")
		}
	}
	h.Events.Send(newTaskEvent(domain.TaskCreated, userID, task.ID, &task))
	metrics.SetTasksReturned(1)
	return c.JSON(http.StatusCreated, taskResponse{Task: newTaskDoc(userID, task)})
}

func (h *handlers) putTask(c echo.Context) (err error) {
	metrics, ctx := h.begin(c, "/tasks")
	defer func() { metrics.Log(c.Response().Status, err) }()

	var req updateTaskRequest
	if decErr := decodeBody(c, &req); decErr != nil || req.ID == "" {
		metrics.SetErrorStage("decode")
		return c.String(http.StatusBadRequest, "invalid body")
	}
	userID, status, authErr := h.authenticate(c, metrics, req.UserID)
	if authErr != nil {
		metrics.SetErrorStage("auth")
		return c.String(status, authErr.Error())
	}
	patch := req.patch()
	if vErr := patch.Validate(); vErr != nil {
		metrics.SetErrorStage("validate")
		return c.String(http.StatusBadRequest, vErr.Error())
	}

	storeStart := time.Now()
	updated, upErr := h.Store.UpdateTask(ctx, userID, req.ID, patch, h.Now().UTC())
	metrics.ObserveStore(time.Since(storeStart))
	if upErr != nil {
		if domain.IsNotFound(upErr) {
			metrics.SetErrorStage("not_found")
			return c.String(http.StatusNotFound, upErr.Error())
		}
		if errors.Is(upErr, domain.ErrConcurrencyConflict) {
			metrics.SetErrorStage("conflict")
			return c.String(http.StatusConflict, upErr.Error())
		}
		metrics.SetErrorStage("storage")
		c.Logger().Error(upErr)
		return c.String(http.StatusInternalServerError, upErr.Error())
	}

	h.Events.Send(newTaskEvent(domain.TaskUpdated, userID, updated.ID, &updated))
	metrics.SetTasksReturned(1)
	return c.JSON(http.StatusOK, taskResponse{Task: newTaskDoc(userID, updated)})
}

func (h *handlers) deleteTask(c echo.Context) (err error) {
	metrics, ctx := h.begin(c, "/tasks")
	defer func() { metrics.Log(c.Response().Status, err) }()

	var req deleteTaskRequest
	if decErr := decodeBody(c, &req); decErr != nil || req.ID == "" {
		metrics.SetErrorStage("decode")
		return c.String(http.StatusBadRequest, "invalid body")
	}
	userID, status, authErr := h.authenticate(c, metrics, req.UserID)
	if authErr != nil {
		metrics.SetErrorStage("auth")
		return c.String(status, authErr.Error())
	}

	storeStart := time.Now()
	delErr := h.Store.DeleteTask(ctx, userID, req.ID)
	metrics.ObserveStore(time.Since(storeStart))
	if delErr != nil {
		if domain.IsNotFound(delErr) {
			metrics.SetErrorStage("not_found")
			return c.String(http.StatusNotFound, delErr.Error())
		}
		metrics.SetErrorStage("storage")
		c.Logger().Error(delErr)
		return c.String(http.StatusInternalServerError, delErr.Error())
	}

	h.Events.Send(newTaskEvent(domain.TaskDeleted, userID, req.ID, nil))
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) getProfile(c echo.Context) (err error) {
	metrics, ctx := h.begin(c, "/user/profile")
	defer func() { metrics.Log(c.Response().Status, err) }()

	userID, status, authErr := h.authenticate(c, metrics, c.QueryParam("userId"))
	if authErr != nil {
		metrics.SetErrorStage("auth")
		return c.String(status, authErr.Error())
	}
	p, getErr := h.Store.GetProfile(ctx, userID)
	if getErr != nil {
		if errors.Is(getErr, storage.ErrProfileNotFound) {
			metrics.SetErrorStage("not_found")
			return c.String(http.StatusNotFound, "user not found")
		}
		metrics.SetErrorStage("storage")
		c.Logger().Error(getErr)
		return c.String(http.StatusInternalServerError, getErr.Error())
	}
	return c.JSON(http.StatusOK, profileResponse{User: newProfileDoc(p)})
}

func (h *handlers) putProfile(c echo.Context) (err error) {
	metrics, ctx := h.begin(c, "/user/profile")
	defer func() { metrics.Log(c.Response().Status, err) }()

	var req updateProfileRequest
	if decErr := decodeBody(c, &req); decErr != nil {
		metrics.SetErrorStage("decode")
		return c.String(http.StatusBadRequest, "invalid body")
	}
	userID, status, authErr := h.authenticate(c, metrics, req.UserID)
	if authErr != nil {
		metrics.SetErrorStage("auth")
		return c.String(status, authErr.Error())
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		metrics.SetErrorStage("validate")
		return c.String(http.StatusBadRequest, "name must not be empty")
	}

	p, upErr := h.Store.UpdateProfile(ctx, userID, domain.ProfilePatch{Name: req.Name, Avatar: req.Avatar}, h.Now().UTC())
	if upErr != nil {
		metrics.SetErrorStage("storage")
		c.Logger().Error(upErr)
		return c.String(http.StatusInternalServerError, upErr.Error())
	}
	return c.JSON(http.StatusOK, profileResponse{User: newProfileDoc(p)})
}

func newProfileDoc(p domain.UserProfile) profileDoc {
	return profileDoc{ID: p.ID, Name: p.Name, Email: p.Email, Avatar: p.Avatar, UpdatedAt: p.UpdatedAt}
}
