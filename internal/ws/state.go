package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/coreman2200/funtimes-ws2812/internal/diagnostics"
	"github.com/coreman2200/funtimes-ws2812/internal/layout"
	"github.com/coreman2200/funtimes-ws2812/internal/metrics"
	"github.com/coreman2200/funtimes-ws2812/internal/pattern"
	"github.com/coreman2200/funtimes-ws2812/internal/pixel"
	"github.com/coreman2200/funtimes-ws2812/internal/strip"
)

// Controller is the strip surface the server drives.
type Controller interface {
	Write(pin int, buf []byte) ([]byte, error)
	SetBrightness(v float64) float64
	Brightness() float64
	SetRemap(table []byte)
	ClearRemap() bool
	Remap() ([]byte, bool)
}

type State struct {
	mu     sync.RWMutex
	sendMu sync.Mutex
	ctrl   Controller
	log    zerolog.Logger

	Pin           int
	Layout        layout.Layout
	Order         pixel.Order
	FPS           int
	CurrentDriver string

	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	writeMu  sync.Mutex
	lastEnd  time.Time
	testKind pattern.Kind
	stopTest context.CancelFunc
}

func NewState(ctrl Controller, pin int, l layout.Layout, log zerolog.Logger) *State {
	return &State{
		ctrl:        ctrl,
		log:         log,
		Pin:         pin,
		Layout:      l,
		Order:       pixel.GRB,
		FPS:         pattern.DFLT_FPS,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleFramesWS streams the echo of every transmission.
func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.sendTopology(conn)

	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()

	go s.drain(conn, s.diagClients)
}

// drain discards client messages until the connection drops.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// HandleControlWS answers each Request with a Response on the same
// connection.
func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		var resp Response
		if err := json.Unmarshal(data, &req); err != nil {
			resp = Response{Error: "bad request: " + err.Error()}
			metrics.ControlError("ws")
		} else {
			resp = s.Apply(req)
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id":   s.frameID,
		"uptime_s":   time.Since(s.startTime).Seconds(),
		"count":      s.Layout.Count(),
		"pin":        s.Pin,
		"driver":     s.CurrentDriver,
		"test":       s.testKind,
		"brightness": s.ctrl.Brightness(),
	}
	s.mu.RUnlock()
	_, remap := s.ctrl.Remap()
	resp["remap"] = remap
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// ObserveWrite surfaces degraded transmissions to diag clients.
func (s *State) ObserveWrite(gpio int, _ int, _ time.Duration, degraded bool) {
	if degraded {
		s.pushDiag(diag.Degraded(gpio))
	}
}

// Write sends buf on pin, keeping the strip's reset gap between writes
// made through this State, and broadcasts the echo. Every surface sharing
// the strip (control socket, test patterns, redis) writes through here.
func (s *State) Write(pin int, buf []byte) ([]byte, error) {
	s.writeMu.Lock()
	if !s.lastEnd.IsZero() {
		if idle := time.Since(s.lastEnd); idle < strip.ResetGap {
			time.Sleep(strip.ResetGap - idle)
		}
	}
	echo, err := s.ctrl.Write(pin, buf)
	s.lastEnd = time.Now()
	s.writeMu.Unlock()

	if err != nil {
		s.pushDiag(diag.FromWriteError(pin, err))
		return nil, err
	}
	s.mu.Lock()
	s.frameID++
	id := s.frameID
	s.mu.Unlock()
	s.broadcastFrame(id, echo)
	return echo, nil
}

// startTest replaces any running pattern with a new one.
func (s *State) startTest(plan pattern.Plan) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.stopTest != nil {
		s.stopTest()
	}
	s.stopTest = cancel
	s.testKind = plan.Kind
	pin := s.Pin
	l := &pattern.Looper{
		Runner: pattern.NewRunner(plan),
		Layout: s.Layout,
		Order:  s.Order,
		FPS:    s.FPS,
		Write:  func(buf []byte) ([]byte, error) { return s.Write(pin, buf) },
		Log:    s.log,
	}
	s.mu.Unlock()

	s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: string(plan.Kind)})
	go func() {
		err := l.Run(ctx)
		s.mu.Lock()
		if ctx.Err() == nil {
			s.testKind = pattern.None
			s.stopTest = nil
		}
		s.mu.Unlock()
		cancel()
		if err != nil {
			s.pushDiag(diag.Diagnostic{Severity: diag.Err, Code: "TEST.FAILED", Summary: "Test aborted", Detail: err.Error()})
			return
		}
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete"})
	}()
}

// StopTest cancels a running pattern; it reports whether one was running.
func (s *State) StopTest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopTest == nil {
		return false
	}
	s.stopTest()
	s.stopTest = nil
	s.testKind = pattern.None
	return true
}

func (s *State) sendTopology(conn *websocket.Conn) {
	s.mu.RLock()
	top := map[string]any{
		"dim":    map[string]int{"x": s.Layout.Dim.X, "y": s.Layout.Dim.Y, "z": s.Layout.Dim.Z},
		"order":  s.Order,
		"pin":    s.Pin,
		"driver": s.CurrentDriver,
	}
	s.mu.RUnlock()
	b, _ := json.Marshal(top)
	s.sendMu.Lock()
	_ = conn.WriteMessage(websocket.TextMessage, b)
	s.sendMu.Unlock()
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Echo    []byte `json:"echo"`
}

func (s *State) broadcastFrame(id uint64, echo []byte) {
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, Echo: echo})
	s.broadcast(s.clients, b)
}

func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.broadcast(s.diagClients, b)
}

func (s *State) broadcast(set map[*websocket.Conn]bool, b []byte) {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.log.Debug().Err(err).Msg("websocket send")
		}
	}
}
