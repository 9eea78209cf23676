package httpserver

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/divakaivan/voice2voice-banking-assistant/internal/session"
	"github.com/divakaivan/voice2voice-banking-assistant/internal/tts"
)

// HistoryStore is the session store plus the connectivity check the health
// endpoint relies on.
type HistoryStore interface {
	session.HistoryStore
	Ping(ctx context.Context) error
}

// Deps bundles the collaborators each voice session needs. Constructed once
// at startup and passed into every session; no process-wide singletons.
type Deps struct {
	History     HistoryStore
	Transcriber session.Transcriber
	Agent       session.Agent
	Synth       tts.Synthesizer
}

// Server bundles the HTTP router and session dependencies.
type Server struct {
	Router *echo.Echo
	deps   Deps
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		// Allow any origin for demo use; restrict in production
		return true
	},
}

// New constructs the HTTP server with routes.
func New(deps Deps) *Server {
	s := &Server{deps: deps}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/healthz", s.handleHealth)
	e.GET("/voice_stream", s.handleVoiceStream)

	s.Router = e
	return s
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.deps.History.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "failed",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleVoiceStream upgrades to WebSocket and runs one conversation for the
// life of the connection.
func (s *Server) handleVoiceStream(c echo.Context) error {
	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return nil
	}
	defer func() { _ = conn.Close() }()

	conversationID := uuid.NewString()
	log.Printf("[%s] new voice stream connection", conversationID)

	sess := session.New(conversationID, &wsTransport{conn: conn}, s.deps.Transcriber, s.deps.History, s.deps.Agent, s.deps.Synth)
	if err := sess.Run(c.Request().Context()); err != nil {
		log.Printf("[%s] session ended with error: %v", conversationID, err)
	}
	return nil
}

// wsTransport adapts a WebSocket connection to the session transport: binary
// frames in are utterances, frames out are status text and audio chunks.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadAudio() ([]byte, error) {
	for {
		mt, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (t *wsTransport) SendText(text string) error {
	return t.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (t *wsTransport) SendAudio(chunk []byte) error {
	return t.conn.WriteMessage(websocket.BinaryMessage, chunk)
}
