// Package hub fans presentation state out to WebSocket clients and
// feeds their commands into the control loop.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"

	"github.com/user/tabterm/internal/app"
	"github.com/user/tabterm/internal/term"
)

const defaultBatchInterval = 50 * time.Millisecond

// Commander is the control loop's command surface as used by clients.
type Commander interface {
	NewTab()
	Activate(id string)
	CloseTab(id string)
	Input(id string, data []byte)
	Resize(id string, cols, rows uint16)
}

// SnapshotSource supplies the active tab's grid for newly connected
// clients, read directly behind the session's lock.
type SnapshotSource interface {
	SnapshotActive() (string, *term.ScreenSnapshot)
}

type Hub struct {
	commander Commander
	snapshots SnapshotSource
	token     string

	clients    map[string]*Client
	register   chan *clientRegistration
	unregister chan *Client
	broadcast  chan []byte

	mu        sync.RWMutex
	lastTabs  []byte
	coalescer *Coalescer
	ctxWrap   *ctxWrapper
	running   atomic.Bool
}

type ctxWrapper struct {
	ctx context.Context
}

type clientRegistration struct {
	client  *Client
	initial [][]byte
}

func New(token string) *Hub {
	h := &Hub{
		token:      token,
		clients:    make(map[string]*Client),
		register:   make(chan *clientRegistration, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
		ctxWrap:    &ctxWrapper{ctx: context.Background()},
	}
	h.coalescer = NewCoalescer(defaultBatchInterval, func(msg ScreenMessage) {
		h.sendJSON(msg)
	})
	return h
}

// Bind wires the control loop in after construction; the hub and the
// loop reference each other, so one side has to attach late.
func (h *Hub) Bind(commander Commander, snapshots SnapshotSource) {
	h.commander = commander
	h.snapshots = snapshots
}

func (h *Hub) getContext() context.Context {
	if h.ctxWrap != nil {
		return h.ctxWrap.ctx
	}
	return context.Background()
}

func (h *Hub) Run(ctx context.Context) {
	h.ctxWrap = &ctxWrapper{ctx: ctx}
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.coalescer.FlushAll()
			h.mu.Lock()
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			return

		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.client.id] = reg.client
			h.mu.Unlock()
			for _, payload := range reg.initial {
				select {
				case reg.client.send <- payload:
				default:
				}
			}
			go reg.client.writePump(h.getContext())
			go reg.client.readPump(h.getContext())
			log.Printf("client connected: %s (total: %d)", reg.client.id, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("client disconnected: %s (total: %d)", client.id, h.ClientCount())

		case data := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- data:
				default:
					log.Printf("client %s send buffer full, dropping message", c.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" || token != h.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("websocket accept error: %v", err)
		return
	}

	client := newClient(conn, h)

	var initial [][]byte
	h.mu.RLock()
	if h.lastTabs != nil {
		initial = append(initial, h.lastTabs)
	}
	h.mu.RUnlock()
	if h.snapshots != nil {
		if id, snap := h.snapshots.SnapshotActive(); snap != nil {
			if payload, err := json.Marshal(snapshotMessage(id, snap)); err == nil {
				initial = append(initial, payload)
			}
		}
	}

	select {
	case h.register <- &clientRegistration{client: client, initial: initial}:
	default:
		log.Printf("hub not accepting connections")
		conn.Close(websocket.StatusTryAgainLater, "server busy")
	}
}

// PresentTabs implements app.Presenter.
func (h *Hub) PresentTabs(state app.TabsState) {
	list := make([]TabInfo, 0, len(state.Tabs))
	for _, tab := range state.Tabs {
		list = append(list, TabInfo{ID: tab.ID, Title: tab.Title, Closable: tab.Closable})
	}
	msg := TabsMessage{
		Type:        "tabs",
		List:        list,
		Active:      state.ActiveID,
		HeaderTitle: state.HeaderTitle,
		WindowTitle: state.WindowTitle,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling tabs message: %v", err)
		return
	}
	h.mu.Lock()
	h.lastTabs = data
	h.mu.Unlock()
	h.sendBroadcast(data)
}

// PresentScreen implements app.Presenter; updates are batched per tab.
func (h *Hub) PresentScreen(sessionID string, update *term.ScreenUpdate) {
	h.coalescer.Add(ScreenMessage{
		Type:      "screen",
		Tab:       sessionID,
		Rows:      update.Rows,
		CursorRow: update.CursorRow,
		CursorCol: update.CursorCol,
		Follow:    update.Follow,
	})
}

// PresentSnapshot implements app.Presenter; full snapshots flush any
// pending partial update so clients never apply a stale patch on top.
func (h *Hub) PresentSnapshot(sessionID string, snap *term.ScreenSnapshot) {
	h.coalescer.Drop(sessionID)
	h.sendJSON(snapshotMessage(sessionID, snap))
}

// PresentBell implements app.Presenter.
func (h *Hub) PresentBell(sessionID string) {
	h.sendJSON(BellMessage{Type: "bell", Tab: sessionID})
}

// PresentShutdown implements app.Presenter.
func (h *Hub) PresentShutdown() {
	h.coalescer.FlushAll()
	h.sendJSON(ShutdownMessage{Type: "shutdown"})
}

func snapshotMessage(id string, snap *term.ScreenSnapshot) ScreenMessage {
	return ScreenMessage{
		Type:      "screen",
		Tab:       id,
		Full:      true,
		Rows:      snap.Rows,
		Cols:      snap.Cols,
		NumRows:   snap.NumRows,
		CursorRow: snap.CursorRow,
		CursorCol: snap.CursorCol,
	}
}

func (h *Hub) sendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling message: %v", err)
		return
	}
	h.sendBroadcast(data)
}

func (h *Hub) sendBroadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		log.Printf("broadcast channel full, dropping message")
	}
}

func (h *Hub) SendError(client *Client, message string) {
	msg := ErrorMessage{Type: "error", Message: message}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling error message: %v", err)
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) isRunning() bool {
	return h.running.Load()
}

func (h *Hub) unregisterClient(c *Client) {
	if !h.isRunning() {
		c.conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	select {
	case h.unregister <- c:
	default:
		log.Printf("unregister channel full for client %s, forcing close", c.id)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}
}
