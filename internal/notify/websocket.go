// Package notify streams frame reports to websocket clients.
package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

const writeWait = 10 * time.Second

type AtomState struct {
	ID     uint64     `json:"id"`
	Symbol string     `json:"symbol"`
	Pos    [3]float64 `json:"pos"`
	Charge float64    `json:"charge"`
	Bonds  []uint64   `json:"bonds,omitempty"`
}

type EventState struct {
	Kind   string `json:"kind"`
	ID     uint64 `json:"id"`
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Frame is the message sent for every frame report.
type Frame struct {
	Frame     int          `json:"frame"`
	Time      float64      `json:"time"`
	Phase     string       `json:"phase"`
	Counts    sim.Counts   `json:"counts"`
	Atoms     []AtomState  `json:"atoms"`
	Events    []EventState `json:"events,omitempty"`
	Labels    []string     `json:"labels,omitempty"`
	Assembled []string     `json:"assembled,omitempty"`
}

// Hub fans frame reports out to every connected client. It satisfies
// sim.Observer and http.Handler. OnFrame never blocks the engine: when the
// queue is full the frame is dropped.
type Hub struct {
	source func() []*entity.Atom
	log    *slog.Logger

	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	upgrader   websocket.Upgrader
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	wg         sync.WaitGroup
	dropped    atomic.Int64
	closeOnce  sync.Once
}

func NewHub(source func() []*entity.Atom, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	h := &Hub{
		source:     source,
		log:        log,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.wg.Add(1)
	go h.run()
	return h
}

// Snapshot builds the message for one report from the current atoms.
func Snapshot(rep sim.Report, atoms []*entity.Atom) Frame {
	f := Frame{
		Frame:  rep.Frame,
		Time:   rep.Time,
		Phase:  rep.Phase.String(),
		Counts: rep.Counts,
		Atoms:  make([]AtomState, 0, len(atoms)),
	}
	for _, a := range atoms {
		if !a.Alive() {
			continue
		}
		st := AtomState{
			ID:     uint64(a.ID),
			Symbol: a.Species.Symbol(),
			Pos:    [3]float64{a.Pos.X, a.Pos.Y, a.Pos.Z},
			Charge: a.Charge,
		}
		for _, nb := range a.Bonds {
			st.Bonds = append(st.Bonds, uint64(nb))
		}
		f.Atoms = append(f.Atoms, st)
	}
	for _, ev := range rep.Events {
		f.Events = append(f.Events, EventState{
			Kind:   string(ev.Kind),
			ID:     uint64(ev.ID),
			Symbol: ev.Symbol,
			Reason: ev.Reason,
		})
	}
	for _, l := range rep.Labels {
		f.Labels = append(f.Labels, l.Text)
	}
	for _, r := range rep.Assembled {
		f.Assembled = append(f.Assembled, r.Molecule)
	}
	return f
}

func (h *Hub) OnFrame(rep sim.Report) {
	if h.Clients() == 0 {
		return
	}
	data, err := json.Marshal(Snapshot(rep, h.source()))
	if err != nil {
		h.log.Error("encode frame", "frame", rep.Frame, "err", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.dropped.Add(1)
	}
}

// Dropped counts frames discarded because the queue was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "err", err)
		return
	}
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			h.log.Debug("client connected", "remote", conn.RemoteAddr())

		case conn := <-h.unregister:
			h.drop(conn)

		case data := <-h.broadcast:
			h.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.RUnlock()

			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					h.log.Debug("client write failed", "remote", conn.RemoteAddr(), "err", err)
					h.drop(conn)
				}
			}
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Close disconnects every client and stops the broadcaster. It is safe to
// call more than once.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	})
	return nil
}
