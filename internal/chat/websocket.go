package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	readLimit   = 4096
	idleTimeout = 5 * time.Minute
)

// Inbound is a message sent by the learner.
type Inbound struct {
	Text string `json:"text"`
}

// Outbound is a message in the conversation, bot or echoed learner.
type Outbound struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"is_bot"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler serves the chatbot over websocket.
type Handler struct {
	bot            *Bot
	originPatterns []string
	now            func() time.Time
}

// NewHandler creates a websocket handler for bot. originPatterns follows
// websocket.AcceptOptions; empty means same-origin only.
func NewHandler(bot *Bot, originPatterns ...string) *Handler {
	return &Handler{bot: bot, originPatterns: originPatterns, now: time.Now}
}

// Serve accepts the connection for an identified user, sends the greeting
// and answers each inbound message until the client goes away.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	if err := h.serve(r.Context(), conn, userID); err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			conn.Close(websocket.StatusNormalClosure, "")
		default:
			if !errors.Is(err, context.Canceled) {
				slog.Warn("chat session ended", "user_id", userID, "error", err)
			}
			conn.Close(websocket.StatusInternalError, "chat session ended")
		}
	}
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, userID string) error {
	id := 1
	send := func(text string, isBot bool) error {
		msg := Outbound{ID: id, Text: text, IsBot: isBot, Timestamp: h.now()}
		id++
		wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return wsjson.Write(wctx, conn, msg)
	}

	if err := send(Greeting, true); err != nil {
		return err
	}

	for {
		var in Inbound
		rctx, cancel := context.WithTimeout(ctx, idleTimeout)
		err := wsjson.Read(rctx, conn, &in)
		cancel()
		if err != nil {
			return err
		}

		text := strings.TrimSpace(in.Text)
		if text == "" {
			continue
		}
		if err := send(text, false); err != nil {
			return err
		}
		if err := send(h.bot.Reply(ctx, userID, text), true); err != nil {
			return err
		}
	}
}
