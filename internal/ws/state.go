package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/zonefx/internal/config"
	diag "github.com/coreman2200/zonefx/internal/diagnostics"
	"github.com/coreman2200/zonefx/internal/effects"
	"github.com/coreman2200/zonefx/internal/engine"
	"github.com/coreman2200/zonefx/internal/layout"
	"github.com/coreman2200/zonefx/internal/press"
	"github.com/coreman2200/zonefx/internal/zone"
)

const (
	writeWait    = 200 * time.Millisecond
	diagBacklog  = 64
	maxReadBytes = 64 << 10
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// peer serializes writes to one connection.
type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peer) write(deadline time.Time, b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(deadline)
	return p.conn.WriteMessage(websocket.TextMessage, b)
}

// State is the preview sink and the control surface of one device.
type State struct {
	Eng     *engine.Engine
	Mgr     *engine.Manager
	Checks  *engine.Manager
	Pressed *press.Set // nil when presses are simulated

	Layout layout.Layout
	FPS    int
	Driver string

	log       zerolog.Logger
	startTime time.Time
	diagCh    chan diag.Diagnostic

	mu          sync.RWMutex
	frameID     uint64
	clients     map[*websocket.Conn]*peer
	diagClients map[*websocket.Conn]*peer
}

func NewState(eng *engine.Engine, mgr *engine.Manager) *State {
	return &State{
		Eng:         eng,
		Mgr:         mgr,
		Layout:      layout.Keyboard(eng.Zones()),
		log:         log.With().Str("component", "ws").Logger(),
		startTime:   time.Now(),
		diagCh:      make(chan diag.Diagnostic, diagBacklog),
		clients:     map[*websocket.Conn]*peer{},
		diagClients: map[*websocket.Conn]*peer{},
	}
}

type frameMsg struct {
	Type    string   `json:"type"`
	T       int64    `json:"t"`
	FrameID uint64   `json:"frame_id"`
	Colors  []string `json:"colors"`
}

// Apply broadcasts f to every preview client. A client that cannot keep
// up within the write deadline is dropped.
func (s *State) Apply(ctx context.Context, f zone.Frame) error {
	s.mu.Lock()
	s.frameID++
	msg := frameMsg{Type: "frame", T: time.Now().UnixNano(), FrameID: s.frameID, Colors: f.Hex()}
	peers := make([]*peer, 0, len(s.clients))
	for _, p := range s.clients {
		peers = append(peers, p)
	}
	s.mu.Unlock()
	if len(peers) == 0 {
		return nil
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	for _, p := range peers {
		if err := p.write(deadline, b); err != nil {
			s.log.Debug().Err(err).Msg("write frame")
			s.drop(s.clients, p.conn)
		}
	}
	return ctx.Err()
}

// FrameID is the id of the last broadcast frame.
func (s *State) FrameID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameID
}

// Push queues d for the diagnostics clients. It never blocks; when the
// backlog is full the diagnostic is logged and dropped.
func (s *State) Push(d diag.Diagnostic) {
	select {
	case s.diagCh <- d:
	default:
		s.log.Debug().Str("code", d.Code).Msg("diagnostics backlog full")
	}
}

// ReportSinkError is an engine sink error hook.
func (s *State) ReportSinkError(e *engine.SinkError) {
	s.Push(diag.FromSinkError(e))
}

// Run delivers queued diagnostics until ctx is done.
func (s *State) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-s.diagCh:
			s.sendDiag(d)
		}
	}
}

func (s *State) sendDiag(d diag.Diagnostic) {
	b, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.mu.RLock()
	peers := make([]*peer, 0, len(s.diagClients))
	for _, p := range s.diagClients {
		peers = append(peers, p)
	}
	s.mu.RUnlock()
	for _, p := range peers {
		if err := p.write(time.Now().Add(writeWait), b); err != nil {
			s.drop(s.diagClients, p.conn)
		}
	}
}

func (s *State) drop(set map[*websocket.Conn]*peer, c *websocket.Conn) {
	s.mu.Lock()
	_, ok := set[c]
	delete(set, c)
	s.mu.Unlock()
	if ok {
		c.Close()
	}
}

// register tracks p in set and discards its input until it closes.
func (s *State) register(set map[*websocket.Conn]*peer, p *peer) {
	s.mu.Lock()
	set[p.conn] = p
	s.mu.Unlock()
	go func() {
		defer s.drop(set, p.conn)
		p.conn.SetReadLimit(maxReadBytes)
		for {
			if _, _, err := p.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p := &peer{conn: conn}
	// topology goes out before the first frame can
	if err := p.write(time.Now().Add(writeWait), s.topology()); err != nil {
		conn.Close()
		return
	}
	s.register(s.clients, p)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.register(s.diagClients, &peer{conn: conn})
}

// Control is one request on the control socket. Every field is optional;
// set fields are applied in declaration order.
type Control struct {
	Select     string                 `json:"select,omitempty"`
	Settings   *config.EffectSettings `json:"settings,omitempty"`
	Stop       bool                   `json:"stop,omitempty"`
	Speed      *int                   `json:"speed,omitempty"` // 1..100
	Brightness *float64               `json:"brightness,omitempty"`
	Press      []int                  `json:"press,omitempty"`
	Release    []int                  `json:"release,omitempty"`
	Pressed    *[]int                 `json:"pressed,omitempty"`
	RunTest    string                 `json:"runTest,omitempty"`
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxReadBytes)
	p := &peer{conn: conn}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Push(diag.Rejected("CONTROL.PARSE", err))
			continue
		}
		if err := s.ApplyControl(r.Context(), msg); err != nil {
			s.log.Warn().Err(err).Msg("control")
		}
		if err := p.write(time.Now().Add(writeWait), s.topology()); err != nil {
			return
		}
	}
}

var (
	ErrNoManualPresses = errors.New("presses are simulated")
	ErrNoActiveEffect  = errors.New("no active effect")
	ErrNotMenuEffect   = errors.New("active effect was not selected from the menu")
)

// ApplyControl performs msg. The first failure is returned and reported
// on the diagnostics feed; later fields are still applied.
func (s *State) ApplyControl(ctx context.Context, msg Control) error {
	var first error
	fail := func(code string, err error) {
		s.Push(diag.Rejected(code, err))
		if first == nil {
			first = err
		}
	}

	if msg.Select != "" {
		cfg := effects.DefaultConfig()
		cfg.BaseColor = effects.DefaultColor(msg.Select)
		if msg.Settings != nil {
			st := *msg.Settings
			st.Name = msg.Select
			cfg = st.EffectConfig()
		}
		if err := s.Mgr.Select(ctx, msg.Select, cfg); err != nil {
			fail("CONTROL.SELECT", err)
		} else {
			s.Push(diag.Selected(msg.Select))
		}
	}
	if msg.Stop {
		s.Mgr.Stop(ctx)
	}
	if msg.Speed != nil {
		if err := s.setSpeed(ctx, *msg.Speed); err != nil {
			fail("CONTROL.SPEED", err)
		}
	}
	if msg.Brightness != nil {
		s.Eng.SetBrightness(*msg.Brightness)
	}
	if len(msg.Press) > 0 || len(msg.Release) > 0 || msg.Pressed != nil {
		if s.Pressed == nil {
			fail("CONTROL.PRESS", ErrNoManualPresses)
		} else {
			if msg.Pressed != nil {
				s.Pressed.Replace(*msg.Pressed)
			}
			for _, z := range msg.Press {
				s.Pressed.Press(z)
			}
			for _, z := range msg.Release {
				s.Pressed.Release(z)
			}
		}
	}
	if msg.RunTest != "" {
		if s.Checks == nil {
			fail("TEST.UNKNOWN", fmt.Errorf("no device checks available"))
		} else if err := s.Checks.Select(ctx, msg.RunTest, effects.DefaultConfig()); err != nil {
			fail("TEST.UNKNOWN", err)
		} else {
			s.Push(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: msg.RunTest, Time: time.Now()})
		}
	}
	return first
}

// setSpeed reselects the active menu effect with a new speed. Playlist
// clips and device checks keep their own speed.
func (s *State) setSpeed(ctx context.Context, percent int) error {
	name, cfg, ok := s.Mgr.Current()
	if !ok {
		if other, _, running := s.Eng.Active(); running {
			return fmt.Errorf("%w: %q", ErrNotMenuEffect, other)
		}
		return ErrNoActiveEffect
	}
	cfg.Speed = effects.SpeedFromPercent(percent)
	return s.Mgr.Select(ctx, name, cfg)
}

type topologyMsg struct {
	Type       string        `json:"type"`
	Zones      int           `json:"zones"`
	Layout     layout.Layout `json:"layout"`
	Effects    []string      `json:"effects"`
	Active     string        `json:"active,omitempty"`
	Speed      int           `json:"speed,omitempty"`
	Brightness float64       `json:"brightness"`
	Driver     string        `json:"driver,omitempty"`
	Sinks      []string      `json:"sinks"`
}

func (s *State) topology() []byte {
	top := topologyMsg{
		Type:       "topology",
		Zones:      s.Eng.Zones(),
		Layout:     s.Layout,
		Effects:    s.Mgr.ListAvailable(),
		Brightness: s.Eng.Brightness(),
		Driver:     s.Driver,
		Sinks:      s.Eng.SinkNames(),
	}
	if name, cfg, ok := s.Eng.Active(); ok {
		top.Active = name
		top.Speed = effects.PercentFromSpeed(cfg.Speed)
	}
	b, _ := json.Marshal(top)
	return b
}

type health struct {
	FrameID    uint64       `json:"frame_id"`
	UptimeS    float64      `json:"uptime_s"`
	Zones      int          `json:"zones"`
	FPS        int          `json:"fps"`
	Brightness float64      `json:"brightness"`
	Driver     string       `json:"driver,omitempty"`
	Clients    int          `json:"clients"`
	Engine     engine.Stats `json:"engine"`
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h := health{
		UptimeS:    time.Since(s.startTime).Seconds(),
		Zones:      s.Eng.Zones(),
		FPS:        s.FPS,
		Brightness: s.Eng.Brightness(),
		Driver:     s.Driver,
		Engine:     s.Eng.Stats(),
	}
	s.mu.RLock()
	h.FrameID = s.frameID
	h.Clients = len(s.clients)
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h)
}

// Routes mounts the handlers on mux.
func (s *State) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
}
