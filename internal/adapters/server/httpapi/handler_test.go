package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evanschultz/chantab/internal/adapters/server/common"
	"github.com/evanschultz/chantab/internal/domain"
)

// stubChannelReader provides deterministic channel responses for handler tests.
type stubChannelReader struct {
	channels []domain.Channel
	state    common.StoreState
	err      error
	lastID   string
}

// ListChannels returns the configured channels.
func (s *stubChannelReader) ListChannels(context.Context) ([]domain.Channel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return domain.CloneChannels(s.channels), nil
}

// GetChannel records the id and returns the matching channel.
func (s *stubChannelReader) GetChannel(_ context.Context, id string) (domain.Channel, error) {
	s.lastID = id
	if s.err != nil {
		return domain.Channel{}, s.err
	}
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return domain.Channel{}, common.ErrNotFound
}

// State returns the configured state.
func (s *stubChannelReader) State(context.Context) (common.StoreState, error) {
	if s.err != nil {
		return common.StoreState{}, s.err
	}
	return s.state, nil
}

func newStubReader() *stubChannelReader {
	channels := []domain.Channel{
		{ID: "1", DisplayNumber: "7", SecondaryID: "480-201"},
		{ID: "2", DisplayNumber: "9", SecondaryID: "812-660"},
	}
	return &stubChannelReader{
		channels: channels,
		state: common.StoreState{
			Source:   "persisted",
			Counter:  2,
			Count:    2,
			Channels: channels,
		},
	}
}

// decodeBody decodes one JSON response body into the requested type.
func decodeBody[T any](t *testing.T, body *strings.Reader) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return out
}

// serve runs one request through a fresh handler.
func serve(t *testing.T, h *Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestHandlerListChannels verifies the list endpoint returns a bare array in store order.
func TestHandlerListChannels(t *testing.T) {
	h := NewHandler(newStubReader())
	h.newID = func() string { return "req-1" }

	rec := serve(t, h, http.MethodGet, "/channels")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(RequestIDHeader); got != "req-1" {
		t.Fatalf("expected generated request id, got %q", got)
	}
	if !strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "[") {
		t.Fatalf("expected json array body, got %s", rec.Body.String())
	}
	got := decodeBody[[]map[string]string](t, strings.NewReader(rec.Body.String()))
	if len(got) != 2 || got[0]["id"] != "1" || got[1]["displayNumber"] != "9" || got[1]["secondaryId"] != "812-660" {
		t.Fatalf("unexpected list payload %#v", got)
	}
}

// TestHandlerGetChannel verifies lookups and not-found mapping.
func TestHandlerGetChannel(t *testing.T) {
	reader := newStubReader()
	h := NewHandler(reader)

	rec := serve(t, h, http.MethodGet, "/channels/2/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if reader.lastID != "2" {
		t.Fatalf("expected id 2, got %q", reader.lastID)
	}
	got := decodeBody[domain.Channel](t, strings.NewReader(rec.Body.String()))
	if got.DisplayNumber != "9" {
		t.Fatalf("unexpected channel %#v", got)
	}

	rec = serve(t, h, http.MethodGet, "/channels/404")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	envelope := decodeBody[ErrorEnvelope](t, strings.NewReader(rec.Body.String()))
	if envelope.Error.Code != "not_found" {
		t.Fatalf("expected not_found code, got %#v", envelope.Error)
	}
}

// TestHandlerState verifies the state summary endpoint.
func TestHandlerState(t *testing.T) {
	h := NewHandler(newStubReader())

	rec := serve(t, h, http.MethodGet, "/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decodeBody[common.StoreState](t, strings.NewReader(rec.Body.String()))
	if got.Source != "persisted" || got.Counter != 2 || len(got.Channels) != 2 {
		t.Fatalf("unexpected state %#v", got)
	}
}

// TestHandlerRejectsWrites verifies the surface is read-only.
func TestHandlerRejectsWrites(t *testing.T) {
	h := NewHandler(newStubReader())

	for _, target := range []string{"/channels", "/channels/1", "/state"} {
		rec := serve(t, h, http.MethodPost, target)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", target, rec.Code)
		}
		if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
			t.Fatalf("%s: expected Allow GET, got %q", target, allow)
		}
	}
}

// TestHandlerErrorMapping verifies adapter errors map onto status codes.
func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		api  string
	}{
		{name: "invalid", err: common.ErrInvalidRequest, code: http.StatusBadRequest, api: "invalid_request"},
		{name: "unavailable", err: common.ErrUnavailable, code: http.StatusServiceUnavailable, api: "service_unavailable"},
		{name: "internal", err: errors.New("boom"), code: http.StatusInternalServerError, api: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reader := newStubReader()
			reader.err = tc.err
			rec := serve(t, NewHandler(reader), http.MethodGet, "/channels")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			envelope := decodeBody[ErrorEnvelope](t, strings.NewReader(rec.Body.String()))
			if envelope.Error.Code != tc.api {
				t.Fatalf("expected %s, got %#v", tc.api, envelope.Error)
			}
		})
	}
}

// TestHandlerUnknownRouteAndRequestID verifies 404 routing and request id passthrough.
func TestHandlerUnknownRouteAndRequestID(t *testing.T) {
	h := NewHandler(newStubReader())

	req := httptest.NewRequest(http.MethodGet, "/channels/1/extra", nil)
	req.Header.Set(RequestIDHeader, "upstream-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "upstream-7" {
		t.Fatalf("expected passthrough request id, got %q", got)
	}

	rec = serve(t, NewHandler(nil), http.MethodGet, "/channels")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without reader, got %d", rec.Code)
	}
}
