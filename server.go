package htmltree

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// maxSourceSize is the default limit of a source sent to the Handler.
const maxSourceSize = 8 << 20

// wsUpgrader is a Gorilla WebSocket instance, used to respond HTTP requests with WebSocket.
var wsUpgrader = websocket.Upgrader{}

// Handler serves parse trees over HTTP. A WebSocket connection gets the tree of every text
// message it sends, which suits an editor reparsing its buffer as it changes. A POST
// request gets the tree of its body. Replies are JSONResult documents.
type Handler struct {
	// Options are used for every parse. Options.Logger defaults to Logger.
	Options Options

	// MaxSourceSize limits the size of a POST body or a WebSocket message. Zero means 8 MiB.
	MaxSourceSize int64

	// OnError is a callback that is called when an error occurs while serving a request.
	OnError func(*http.Request, error)

	// Logger configures logging for internal events.
	Logger *slog.Logger

	// init is used to initialize the handler only once.
	init sync.Once

	// logger is a private logger instance that is used to log internal events.
	logger *slog.Logger
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.init.Do(func() {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		if h.Logger != nil {
			h.logger = h.Logger
		}
		if h.Options.Logger == nil {
			h.Options.Logger = h.logger
		}
		if h.MaxSourceSize <= 0 {
			h.MaxSourceSize = maxSourceSize
		}
	})

	var err error
	switch {
	case websocket.IsWebSocketUpgrade(r):
		err = h.serveWebSocket(w, r)
	case r.Method == http.MethodPost:
		err = h.serveOnce(w, r)
	default:
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if err != nil {
		h.logger.Error("Serve HTTP request", "url", r.URL.Redacted(), "error", err)

		if h.OnError != nil {
			h.OnError(r, err)
		}
	}
}

func (h *Handler) serveOnce(w http.ResponseWriter, r *http.Request) error {
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxSourceSize))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		return fmt.Errorf("read request body: %w", err)
	}

	res := Parse(string(src), h.Options)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ToJSON(res)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (h *Handler) serveWebSocket(w http.ResponseWriter, r *http.Request) error {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(h.MaxSourceSize)

	for {
		mt, src, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read websocket message: %w", err)
		}
		if mt != websocket.TextMessage {
			h.logger.Debug("Skip websocket message", "type", mt)
			continue
		}

		res := Parse(string(src), h.Options)

		w, err := ws.NextWriter(websocket.TextMessage)
		if err != nil {
			return fmt.Errorf("get websocket writer: %w", err)
		}
		if err := json.NewEncoder(w).Encode(ToJSON(res)); err != nil {
			return fmt.Errorf("encode tree: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close websocket writer: %w", err)
		}
	}
}
