package webui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kwpdash/display"
)

func TestIndexHandler_RendersCurrentFrame(t *testing.T) {
	target := display.NewDashboardTarget()
	if err := target.Begin(16, 2); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := target.SetCursor(0, 0); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}
	if err := target.Print("Speed"); err != nil {
		t.Fatalf("Print: %v", err)
	}

	srv, err := New(target)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.IndexHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Speed") {
		t.Fatalf("index page should contain current frame text, got %q", rec.Body.String())
	}
}

func TestEventsHandler_StreamsFrameUpdate(t *testing.T) {
	target := display.NewDashboardTarget()
	if err := target.Begin(16, 2); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	srv, err := New(target)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.EventsHandler(rec, req)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	if err := target.SetCursor(0, 0); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}
	if err := target.Print("RPM"); err != nil {
		t.Fatalf("Print: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(rec.Body.String(), "RPM") {
		t.Fatalf("expected SSE body to contain patched frame text, got %q", rec.Body.String())
	}
}
