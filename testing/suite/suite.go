package suite

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/service"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-minimax/transport/rest"
	ws "github.com/rocketscienceinc/tictactoe-minimax/transport/websocket"
)

const (
	maxWaitDuration = 30 * time.Second
	readTimeout     = 2 * time.Second
	writeTimeout    = time.Second
	cookieTTL       = time.Hour
)

// Suite runs the whole web stack on an httptest server.
type Suite struct {
	*testing.T
	Logger *slog.Logger

	Games  *usecase.GameManager
	Server *httptest.Server
}

// Options tweak the stack under test.
type Options struct {
	// HotSeat plays without the computer opponent.
	HotSeat bool
}

func New(t *testing.T, opts Options) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var games *usecase.GameManager
	if opts.HotSeat {
		games = usecase.NewGameManager(logger, nil)
	} else {
		games = usecase.NewGameManager(logger, service.NewBotService())
	}

	wsServer := ws.New(logger, games, writeTimeout, cookieTTL)
	server := httptest.NewServer(rest.NewRouter(logger, wsServer))

	t.Cleanup(func() {
		wsServer.Close()
		server.Close()
	})

	return ctx, &Suite{
		T:      t,
		Logger: logger,
		Games:  games,
		Server: server,
	}
}

// Client is a browser stand-in: a websocket with a cookie jar.
type Client struct {
	t    *testing.T
	Conn *websocket.Conn
	Jar  http.CookieJar
}

// Dial opens a websocket without a session cookie.
func (that *Suite) Dial(ctx context.Context) *Client {
	that.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		that.Fatalf("could not create cookie jar: %v", err)
	}

	return that.DialWithJar(ctx, jar)
}

// DialWithJar opens a websocket reusing the cookies in jar, like a page reload.
func (that *Suite) DialWithJar(ctx context.Context, jar http.CookieJar) *Client {
	that.Helper()

	wsURL := "ws" + strings.TrimPrefix(that.Server.URL, "http") + "/ws"

	dialer := websocket.Dialer{
		HandshakeTimeout: readTimeout,
		Jar:              jar,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		that.Fatalf("could not dial websocket: %v", err)
	}
	_ = resp.Body.Close()

	that.Cleanup(func() {
		_ = conn.Close()
	})

	return &Client{t: that.T, Conn: conn, Jar: jar}
}

// SessionID returns the session cookie the server handed out.
func (that *Client) SessionID(serverURL string) string {
	that.t.Helper()

	u, err := url.Parse(serverURL)
	if err != nil {
		that.t.Fatalf("could not parse server url: %v", err)
	}

	for _, cookie := range that.Jar.Cookies(u) {
		if cookie.Name == ws.SessionCookie {
			return cookie.Value
		}
	}

	return ""
}

func (that *Client) Send(action string, payload any) {
	that.t.Helper()

	message := ws.Message{Action: action}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			that.t.Fatalf("could not marshal payload: %v", err)
		}
		message.Payload = body
	}

	if err := that.Conn.WriteJSON(message); err != nil {
		that.t.Fatalf("could not write message: %v", err)
	}
}

func (that *Client) Read() ws.Message {
	that.t.Helper()

	if err := that.Conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		that.t.Fatalf("could not set read deadline: %v", err)
	}

	var message ws.Message
	if err := that.Conn.ReadJSON(&message); err != nil {
		that.t.Fatalf("could not read message: %v", err)
	}

	return message
}

// ReadBoard reads the next message and expects a board update.
func (that *Client) ReadBoard() [9]string {
	that.t.Helper()

	message := that.Read()
	if message.Action != ws.ActionBoard {
		that.t.Fatalf("expected %q, got %q", ws.ActionBoard, message.Action)
	}

	var payload ws.BoardPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		that.t.Fatalf("could not unmarshal board: %v", err)
	}

	return payload.Board
}

// ReadText reads the next message and expects a status text.
func (that *Client) ReadText() string {
	that.t.Helper()

	message := that.Read()
	if message.Action != ws.ActionMessage {
		that.t.Fatalf("expected %q, got %q", ws.ActionMessage, message.Action)
	}

	var payload ws.TextPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		that.t.Fatalf("could not unmarshal text: %v", err)
	}

	return payload.Text
}

// ReadError reads the next message and expects an error.
func (that *Client) ReadError() string {
	that.t.Helper()

	message := that.Read()
	if message.Action != ws.ActionError {
		that.t.Fatalf("expected %q, got %q", ws.ActionError, message.Action)
	}

	var payload ws.ErrorPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		that.t.Fatalf("could not unmarshal error: %v", err)
	}

	return payload.Error
}
