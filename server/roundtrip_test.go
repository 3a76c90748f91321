package server_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/23CSBS271/focus-flow/domain"
	"github.com/23CSBS271/focus-flow/remote"
	"github.com/23CSBS271/focus-flow/server"
	"github.com/23CSBS271/focus-flow/storage"
	"github.com/23CSBS271/focus-flow/store"
)

func TestCoordinatorAgainstServer(t *testing.T) {
	logger, _ := test.NewNullLogger()
	secret := []byte("round-trip")

	e := echo.New()
	server.Register(e, server.Deps{
		Store:  storage.NewMemory(),
		Auth:   server.NewHS256Auth(secret, "", ""),
		Logger: logger,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	token, err := server.SignHS256(secret, "u1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	client := remote.New(srv.URL, remote.WithBearer(token), remote.WithLogger(logger))
	s := store.New(client, logger)
	ctx := context.Background()
	if _, err := s.Load(ctx, "u1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	c := store.NewCoordinator(s, client, store.Options{Logger: logger})
	defer c.Close()

	due := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	created, err := c.Create(ctx, domain.TaskInput{Title: "Ship release", Priority: domain.PriorityUrgent, DueDate: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Status != domain.StatusTodo {
		t.Fatalf("unexpected created task: %#v", created)
	}

	toggled, err := c.ToggleComplete(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", toggled.Status)
	}

	moved, err := c.MoveDueDate(ctx, created.ID, nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.DueDate != nil {
		t.Fatalf("expected due date cleared, got %v", moved.DueDate)
	}

	remoteTasks, err := client.FetchTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(remoteTasks) != 1 || remoteTasks[0].Status != domain.StatusCompleted || remoteTasks[0].DueDate != nil {
		t.Fatalf("server state diverged: %#v", remoteTasks)
	}
	if local, ok := s.Get(created.ID); !ok || local.Status != domain.StatusCompleted {
		t.Fatalf("local state diverged: %#v", local)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty local list, got %d", s.Len())
	}
	if remoteTasks, _ := client.FetchTasks(ctx, "u1"); len(remoteTasks) != 0 {
		t.Fatalf("expected empty server list, got %#v", remoteTasks)
	}
}

func TestProfileAgainstServer(t *testing.T) {
	logger, _ := test.NewNullLogger()
	e := echo.New()
	server.Register(e, server.Deps{Store: storage.NewMemory(), Logger: logger})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	client := remote.New(srv.URL, remote.WithLogger(logger))
	ctx := context.Background()

	if _, err := client.FetchProfile(ctx, "u1"); err == nil {
		t.Fatal("expected missing profile error")
	} else if fe, ok := err.(*domain.FetchError); !ok || fe.StatusCode != 404 {
		t.Fatalf("expected 404 fetch error, got %#v", err)
	}

	name := "Ada"
	p, err := client.UpdateProfile(ctx, "u1", domain.ProfilePatch{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.ID != "u1" || p.Name != "Ada" {
		t.Fatalf("unexpected profile: %#v", p)
	}
}
