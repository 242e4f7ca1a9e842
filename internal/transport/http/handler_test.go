package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/drawtogether/board-service/internal/domain"
	"github.com/drawtogether/board-service/internal/registry"
	"github.com/drawtogether/board-service/internal/service"
	"github.com/drawtogether/board-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI() (http.Handler, *store.Memory, *registry.Registry) {
	mem := store.NewMemory()
	reg := registry.New(6)
	h := NewHandler(service.NewRoomService(mem, reg))

	r := chi.NewRouter()
	r.Post("/api/rooms/join", h.JoinRoom)
	r.Post("/api/rooms/create", h.CreateRoom)
	r.Get("/api/rooms/{id}", h.GetRoom)
	return r, mem, reg
}

func TestJoinCreatesRoomAndReturnsHistory(t *testing.T) {
	api, mem, _ := newTestAPI()

	_ = mem.Append(context.Background(), "X7K2P9",
		domain.DrawCommand{Type: domain.CommandStart, X: 10, Y: 20})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/join",
		strings.NewReader(`{"roomId":"x7k2p9"}`))
	api.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp JoinRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "X7K2P9", resp.RoomID)
	require.Len(t, resp.DrawingData, 1)
	assert.Equal(t, domain.CommandStart, resp.DrawingData[0].Type)
}

func TestJoinEmptyRoomReturnsEmptyArray(t *testing.T) {
	api, _, _ := newTestAPI()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/join",
		strings.NewReader(`{"roomId":"ABC123"}`))
	api.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"drawingData":[]`,
		"empty history must encode as [], not null")
}

func TestJoinValidation(t *testing.T) {
	api, _, _ := newTestAPI()

	for _, body := range []string{`{}`, `{"roomId":"x"}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/join", strings.NewReader(body))
		api.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}
}

func TestCreateReturnsFreshCode(t *testing.T) {
	api, mem, _ := newTestAPI()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/create", nil)
	api.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CreateRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.RoomID, 6)

	exists, err := mem.Exists(context.Background(), resp.RoomID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetRoomSnapshot(t *testing.T) {
	api, mem, reg := newTestAPI()

	_, _ = mem.EnsureRoom(context.Background(), "X7K2P9")
	reg.Join("X7K2P9", "conn-a")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/x7k2p9", nil)
	api.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RoomSnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "X7K2P9", resp.RoomID)
	assert.Equal(t, 1, resp.ActiveUsers)
	assert.False(t, resp.CreatedAt.IsZero())
}

func TestGetUnknownRoomIs404(t *testing.T) {
	api, _, _ := newTestAPI()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/NOPE99", nil)
	api.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
