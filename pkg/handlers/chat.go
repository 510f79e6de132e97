package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/attendance-engine/pkg/apperrors"
	"github.com/campuskit/attendance-engine/pkg/logging"
	"github.com/campuskit/attendance-engine/pkg/services"
)

// ChatHandler exposes the natural-language query endpoint and its health
// probe.
type ChatHandler struct {
	chat      services.ChatService
	startedAt time.Time
	logger    *zap.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chat services.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:      chat,
		startedAt: time.Now(),
		logger:    logger.Named("chat_handler"),
	}
}

// RegisterRoutes registers the chat routes on the given mux. The bare /chat
// alias serves clients that don't use the /api/chatbot prefix.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chatbot/chat", h.Chat)
	mux.HandleFunc("POST /chat", h.Chat)
	mux.HandleFunc("GET /api/chatbot/health", h.Health)
}

// chatRequest accepts both field names older clients used.
type chatRequest struct {
	Message  string `json:"message"`
	Question string `json:"question"`
}

func (r *chatRequest) text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Question
}

// Chat handles POST /api/chatbot/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := h.logger.With(zap.String("request_id", requestID))

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "Message is required"); err != nil {
			logger.Error("failed to encode error response", zap.Error(err))
		}
		return
	}

	started := time.Now()
	resp, err := h.chat.Answer(r.Context(), req.text())
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyMessage) {
			if err := ErrorResponse(w, http.StatusBadRequest, "Message is required"); err != nil {
				logger.Error("failed to encode error response", zap.Error(err))
			}
			return
		}

		logger.Error("chat pipeline failed",
			zap.String("message", logging.TruncateMessage(req.text())),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, services.ErrorAnswer(err)); err != nil {
			logger.Error("failed to encode error response", zap.Error(err))
		}
		return
	}

	logger.Info("chat answered",
		zap.Int("result_count", resp.ResultCount),
		zap.Duration("elapsed", time.Since(started)))

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("failed to encode chat response", zap.Error(err))
	}
}

// chatHealthResponse is the static capability listing served by the chat
// health probe.
type chatHealthResponse struct {
	Success        bool     `json:"success"`
	Status         string   `json:"status"`
	Message        string   `json:"message"`
	Timestamp      string   `json:"timestamp"`
	UptimeSeconds  float64  `json:"uptime"`
	ServerTime     string   `json:"serverTime"`
	Features       []string `json:"features"`
	ExampleQueries []string `json:"exampleQueries"`
}

// Health handles GET /api/chatbot/health.
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	resp := chatHealthResponse{
		Success:       true,
		Status:        "Online",
		Message:       "Academic Assistant is ready!",
		Timestamp:     now.Format(time.RFC3339),
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		ServerTime:    now.Format("01/02/2006, 15:04:05"),
		Features: []string{
			"Student Search by Name/ID/Stream",
			"Subject Information & Statistics",
			"Attendance Records & History",
			"Detailed Attendance Reports",
			"Teacher Information & Subjects",
			"Statistical Queries & Analytics",
			"Natural Language Processing",
			"Smart Error Handling",
		},
		ExampleQueries: []string{
			"List all students",
			"Show BBA semester 5 subjects",
			"What is [student name]'s attendance?",
			"Show attendance on 2025-10-22",
			"How many students in BCA?",
			"Who teaches Business Data Analytics?",
		},
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to encode health response", zap.Error(err))
	}
}
