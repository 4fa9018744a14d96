package stream

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/vpatch/pkg/dom"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/updater"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// ErrSessionClosed is returned by Push after the session has closed.
var ErrSessionClosed = errors.New("stream: session closed")

// RunFunc drives one session, typically by calling Push for each new
// snapshot. The context is canceled when the client disconnects. The
// session is closed when RunFunc returns.
type RunFunc func(ctx context.Context, s *Session) error

// Handler upgrades HTTP requests to WebSocket sessions.
type Handler struct {
	config   Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *updater.Metrics
	initial  func(r *http.Request) *vdom.VNode
	run      RunFunc
	wg       sync.WaitGroup
}

// NewHandler returns a Handler that starts each session from initial(r)
// and then hands it to run.
func NewHandler(initial func(r *http.Request) *vdom.VNode, run RunFunc, opts ...Option) *Handler {
	h := &Handler{
		config:  DefaultConfig(),
		logger:  slog.Default(),
		initial: initial,
		run:     run,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  h.config.ReadBufferSize,
		WriteBufferSize: h.config.WriteBufferSize,
		CheckOrigin:     h.config.CheckOrigin,
	}
	return h
}

// ServeHTTP handles WebSocket upgrade and runs the session to completion.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.wg.Add(1)
	defer h.wg.Done()

	initial := h.initial(r)
	if err := vdom.Validate(initial); err != nil {
		h.logger.Error("invalid initial snapshot", "error", err)
		http.Error(w, "invalid initial snapshot", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(h.config.MaxMessageSize)

	s, err := h.newSession(conn, initial)
	if err != nil {
		h.logger.Error("session start failed", "error", err)
		conn.Close()
		return
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		s.readLoop()
		cancel()
	}()

	if err := h.run(ctx, s); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrSessionClosed) {
		s.logger.Error("session run failed", "error", err)
		s.sendError(protocol.NewFatalError(protocol.CodeServerError, err.Error()))
	}
}

// Wait blocks until every session served so far has ended.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// Session is one connected client.
type Session struct {
	id     string
	conn   *websocket.Conn
	config Config
	logger *slog.Logger

	writeMu sync.Mutex
	pushMu  sync.Mutex
	mirror  *updater.Updater[*dom.Node]
	sendErr error

	closeOnce sync.Once
	closed    chan struct{}
}

func generateSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

func (h *Handler) newSession(conn *websocket.Conn, initial *vdom.VNode) (*Session, error) {
	s := &Session{
		id:     generateSessionID(),
		conn:   conn,
		config: h.config,
		closed: make(chan struct{}),
	}
	s.logger = h.logger.With("session_id", s.id)

	mirror, err := updater.New[*dom.Node](dom.NewDocument(), initial,
		updater.WithName(s.id),
		updater.WithLogger(h.logger),
		updater.WithMetrics(h.metrics),
		updater.WithObserver(s.sendPatches),
	)
	if err != nil {
		return nil, err
	}
	s.mirror = mirror

	payload, err := protocol.EncodeSnapshot(&protocol.SnapshotFrame{Seq: 0, Root: initial})
	if err != nil {
		return nil, err
	}
	if err := s.write(protocol.NewFrame(protocol.FrameSnapshot, payload)); err != nil {
		return nil, err
	}
	s.logger.Info("session started", "nodes", vdom.Count(initial))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Seq returns the sequence number of the last frame sent.
func (s *Session) Seq() uint64 {
	return s.mirror.Seq()
}

// Current returns the snapshot the client was last brought to.
func (s *Session) Current() *vdom.VNode {
	return s.mirror.Current()
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

// Push brings the client to next: the patch script is applied to the
// mirror and then sent as one patches frame. Push calls are serialized.
func (s *Session) Push(ctx context.Context, next *vdom.VNode) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	s.sendErr = nil
	if err := s.mirror.Update(ctx, next); err != nil {
		return err
	}
	if s.sendErr != nil {
		err := s.sendErr
		s.Close()
		return err
	}
	return nil
}

// sendPatches runs inside the mirror's cycle, after a successful apply.
func (s *Session) sendPatches(c updater.Cycle) {
	payload, err := protocol.EncodePatches(&protocol.PatchesFrame{Seq: c.Seq, Patches: c.Patches})
	if err != nil {
		s.sendErr = errors.Wrap(err, "stream: encode patches")
		return
	}
	if err := s.write(protocol.NewFrame(protocol.FramePatches, payload)); err != nil {
		s.sendErr = err
		return
	}
	s.logger.Debug("patches sent", "seq", c.Seq, "patches", len(c.Patches), "bytes", len(payload))
}

func (s *Session) write(f *protocol.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return errors.Wrapf(err, "stream: write %s frame", f.Type)
	}
	return nil
}

func (s *Session) sendError(em *protocol.ErrorMessage) {
	f := protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em))
	if em.Fatal {
		f.Flags |= protocol.FlagFinal
	}
	if err := s.write(f); err != nil {
		s.logger.Debug("error frame not sent", "error", err)
	}
}

// readLoop consumes frames from the client until the connection ends.
// Clients only ever send error frames.
func (s *Session) readLoop() {
	defer s.Close()
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}
		if frame.Type != protocol.FrameError {
			s.logger.Warn("unexpected frame type", "type", frame.Type)
			continue
		}
		em, err := protocol.DecodeErrorMessage(frame.Payload)
		if err != nil {
			s.logger.Error("error frame decode error", "error", err)
			continue
		}
		s.logger.Error("client reported error", "code", em.Code, "message", em.Message, "fatal", em.Fatal)
		if em.Fatal {
			return
		}
	}
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.writeMu.Lock()
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		s.conn.Close()
		s.logger.Info("session closed", "seq", s.mirror.Seq())
	})
}
