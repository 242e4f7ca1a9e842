package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/drawtogether/board-service/internal/domain"
	"github.com/drawtogether/board-service/internal/service"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc *service.RoomService
}

func NewHandler(room *service.RoomService) *Handler {
	return &Handler{roomSvc: room}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JoinRoom joins (or creates) a room and returns its full history.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "room id is required"})
		return
	}

	room, log, err := h.roomSvc.Join(r.Context(), req.RoomID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRoomID) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
			return
		}
		slog.Error("handler.JoinRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	if log == nil {
		log = []domain.DrawCommand{}
	}
	writeJSON(w, http.StatusOK, JoinRoomResponse{
		RoomID:      room.ID,
		DrawingData: log,
	})
}

// CreateRoom allocates a fresh room code without joining.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.Create(r.Context())
	if err != nil {
		slog.Error("handler.CreateRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, CreateRoomResponse{RoomID: room.ID})
}

// GetRoom returns a read-only snapshot of the room.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	room, log, err := h.roomSvc.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRoomID):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		case errors.Is(err, domain.ErrRoomNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		default:
			slog.Error("handler.GetRoom:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	if log == nil {
		log = []domain.DrawCommand{}
	}
	writeJSON(w, http.StatusOK, RoomSnapshotResponse{
		RoomID:       room.ID,
		CreatedAt:    room.CreatedAt,
		LastActivity: room.LastActivity,
		DrawingData:  log,
		ActiveUsers:  room.ActiveUsers,
	})
}
