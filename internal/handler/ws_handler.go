package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/iexsys/iexsys-backend/internal/config"
	"github.com/iexsys/iexsys-backend/internal/middleware"
	"github.com/iexsys/iexsys-backend/internal/service"
	ws "github.com/iexsys/iexsys-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams an exam room over WebSocket: low-latency answer autosave
// plus synchronous submit-and-grade.
type WSHandler struct {
	rdb         *redis.Client
	roomService *service.ExamRoomService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, roomService *service.ExamRoomService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		roomService: roomService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// RoomStream godoc
// WS /ws/v1/rooms/:room_id/stream?token=...
// Upgrades to WebSocket for real-time autosave and submission.
func (h *WSHandler) RoomStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	if err := h.roomService.VerifySessionOwner(c.Request.Context(), sessionID, claims.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, sessionID, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, sessionID)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handleAutosave buffers a single answer in Redis and queues it for durable
// persistence by the flush worker. The buffer write keeps reconnect recovery
// fast; the queue keeps the database authoritative.
func (h *WSHandler) handleAutosave(conn *websocket.Conn, sessionID uuid.UUID, msg *ws.RequestPayload) {
	ctx := context.Background()

	if msg.QID == "" || msg.Answer == "" {
		ws.WriteError(conn, "q_id and ans are required")
		return
	}

	// QID must be a well-formed UUID to prevent Redis key pollution.
	if _, err := uuid.Parse(msg.QID); err != nil {
		ws.WriteError(conn, "invalid q_id format")
		return
	}

	answersKey := config.CacheKey.RoomAnswersKey(sessionID.String())
	if err := h.rdb.HSet(ctx, answersKey, msg.QID, msg.Answer).Err(); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Autosave Redis error")
		ws.WriteError(conn, "save failed")
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"session_id": sessionID.String(),
		"q_id":       msg.QID,
		"answer":     msg.Answer,
	})
	h.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)

	ws.WriteTyped(conn, ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved"})
}

// handleSubmit finalizes the session through the room service, so WebSocket
// and HTTP submissions share the same single-grade guarantee.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID) {
	finalScore, err := h.roomService.Submit(context.Background(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubmitted) {
			ws.WriteError(conn, "exam already submitted")
			return
		}
		wsLog.Error().Err(err).Msg("Submit error")
		ws.WriteError(conn, "submission failed")
		return
	}

	ws.WriteTyped(conn, ws.GradedResponse{
		Event:  ws.EventGraded,
		Status: "completed",
		Score:  finalScore,
	})
}
