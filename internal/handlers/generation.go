// internal/handlers/generation.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamReadTimeout  = 30 * time.Second
)

// Frame types sent on the generation stream.
const (
	frameProgress = "progress"
	frameResult   = "result"
	frameError    = "error"
)

type GenerationHandler struct {
	generationService *services.GenerationService
	upgrader          websocket.Upgrader
}

type streamFrame struct {
	Type     string                       `json:"type"`
	Progress *services.GenerationProgress `json:"progress,omitempty"`
	Result   *services.GeneratedImage     `json:"result,omitempty"`
	Error    string                       `json:"error,omitempty"`
	Code     string                       `json:"code,omitempty"`
}

func NewGenerationHandler(generationService *services.GenerationService, allowedOrigins []string) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

var generationErrors = errorKeys{
	invalid: i18n.KeyValidationStyle,
}

// GET /api/generate/styles
func (h *GenerationHandler) GetStyles(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{"styles": h.generationService.Styles()})
}

// POST /api/generate
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req services.GenerationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, generationErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"result": result})
}

// GET /api/generate/stream
//
// The client sends one GenerationRequest as JSON, then receives progress
// frames followed by a single result or error frame.
func (h *GenerationHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		requestLog(c).WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	lang := utils.GetLangFromContext(c)

	conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	var req services.GenerationRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeFrame(conn, streamFrame{
			Type:  frameError,
			Error: i18n.T(lang, i18n.KeyValidationInvalid, "request"),
			Code:  "BAD_REQUEST",
		})
		return
	}
	conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// A close or any other message from the client ends the generation
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	result, err := h.generationService.GenerateWithProgress(ctx, &req, func(p services.GenerationProgress) {
		progress := p
		h.writeFrame(conn, streamFrame{Type: frameProgress, Progress: &progress})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		frame := streamFrame{Type: frameError, Code: "INTERNAL_ERROR", Error: i18n.T(lang, i18n.KeyGenerationFailed)}
		if errors.Is(err, services.ErrInvalidInput) {
			frame.Code = "VALIDATION_ERROR"
			frame.Error = i18n.T(lang, i18n.KeyValidationStyle)
		} else {
			requestLog(c).WithError(err).Error("Generation stream failed")
		}
		h.writeFrame(conn, frame)
		return
	}

	if h.writeFrame(conn, streamFrame{Type: frameResult, Result: result}) {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

func (h *GenerationHandler) writeFrame(conn *websocket.Conn, frame streamFrame) bool {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(frame) == nil
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin
		return origin == "" || allowed[origin]
	}
}
