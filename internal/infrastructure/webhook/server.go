package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"NewsCourier/internal/ports"
)

// Server receives LINE platform events and registers new followers.
type Server struct {
	echo          *echo.Echo
	register      func(ctx context.Context, lineUserID string) (string, error)
	push          ports.PushClient
	channelSecret string
	logger        *slog.Logger
}

type lineEvent struct {
	Type   string `json:"type"`
	Source struct {
		UserID string `json:"userId"`
	} `json:"source"`
}

type webhookBody struct {
	Events []lineEvent `json:"events"`
}

// NewServer wires the event routes. register returns the display name to greet
// with; push delivers the welcome message.
func NewServer(register func(ctx context.Context, lineUserID string) (string, error), push ports.PushClient, channelSecret string, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:          e,
		register:      register,
		push:          push,
		channelSecret: channelSecret,
		logger:        logger,
	}

	e.POST("/webhook", s.handleWebhook)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return s
}

// Start blocks serving on addr until Shutdown.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if !s.validSignature(body, c.Request().Header.Get("X-Line-Signature")) {
		s.logger.Warn("webhook signature mismatch")
		return c.NoContent(http.StatusBadRequest)
	}

	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	ctx := c.Request().Context()
	for _, event := range payload.Events {
		if event.Type != "follow" || event.Source.UserID == "" {
			continue
		}
		s.handleFollow(ctx, event.Source.UserID)
	}

	return c.String(http.StatusOK, "OK")
}

// handleFollow registers the follower and greets them. Failures are logged,
// never surfaced to the platform: LINE retries on non-2xx and the
// registration is idempotent anyway.
func (s *Server) handleFollow(ctx context.Context, userID string) {
	name, err := s.register(ctx, userID)
	if err != nil {
		s.logger.Error("registration failed", "line_user_id", userID, "error", err)
		return
	}
	s.logger.Info("user registered", "line_user_id", userID)

	welcome := fmt.Sprintf("歡迎 %s!\n請使用以下指令操作：\n- 訂閱天氣 [地點]\n- 訂閱新聞 [類別]", name)
	if _, err := s.push.Push(ctx, userID, []string{welcome}); err != nil {
		s.logger.Error("welcome message failed", "line_user_id", userID, "error", err)
	}
}

// validSignature checks the HMAC-SHA256 digest LINE signs request bodies with.
func (s *Server) validSignature(body []byte, signature string) bool {
	if s.channelSecret == "" {
		// No secret configured; accept everything (local development).
		return true
	}

	mac := hmac.New(sha256.New, []byte(s.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
