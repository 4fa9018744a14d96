package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/updater"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStreamRoundTrip(t *testing.T) {
	states := []*vdom.VNode{
		vdom.Div(vdom.H1("Todo"), vdom.Ul()),
		vdom.Div(vdom.H1("Todo"), vdom.Ul(vdom.Li("milk"))),
		vdom.Div(vdom.H1("Todo (2)"), vdom.Ul(vdom.Li("milk"), vdom.Li(vdom.Class("new"), "eggs"))),
		vdom.Div(vdom.H1("Todo (2)"), vdom.Ul(vdom.Li("milk"), vdom.Li(vdom.Class("new"), "eggs"))),
		vdom.Div(vdom.H1("Done"), vdom.P("nothing left")),
		vdom.Section("replaced"),
	}

	reg := prometheus.NewRegistry()
	metrics := updater.NewMetrics(updater.WithRegistry(reg))
	h := NewHandler(
		func(*http.Request) *vdom.VNode { return states[0] },
		func(ctx context.Context, s *Session) error {
			for _, next := range states[1:] {
				if err := s.Push(ctx, next); err != nil {
					return err
				}
			}
			<-ctx.Done()
			return ctx.Err()
		},
		WithLogger(quiet),
		WithMetrics(metrics),
	)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx := testContext(t)
	c, err := Dial(ctx, wsURL(srv), nil, WithClientLogger(quiet))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	if !vdom.Equal(c.Root().Snapshot(), states[0]) {
		t.Fatalf("initial tree = %v, want %v", c.Root().Snapshot(), states[0])
	}
	for i, want := range states[1:] {
		pf, err := c.Next(ctx)
		if err != nil {
			t.Fatalf("Next() #%d error = %v", i+1, err)
		}
		if pf.Seq != uint64(i+1) {
			t.Errorf("Seq = %d, want %d", pf.Seq, i+1)
		}
		if got := c.Root().Snapshot(); !vdom.Equal(got, want) {
			t.Errorf("after frame %d: live = %v, want %v", pf.Seq, got, want)
		}
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	h.Wait()

	// One series each for the ok and noop results.
	if n, err := testutil.GatherAndCount(reg, "vpatch_updater_cycles_total"); err != nil || n != 2 {
		t.Errorf("cycle series = %d, %v, want 2", n, err)
	}
}

func TestServerRunError(t *testing.T) {
	h := NewHandler(
		func(*http.Request) *vdom.VNode { return vdom.Div() },
		func(ctx context.Context, s *Session) error {
			return errors.New("source exhausted")
		},
		WithLogger(quiet),
	)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx := testContext(t)
	c, err := Dial(ctx, wsURL(srv), nil, WithClientLogger(quiet))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	_, err = c.Next(ctx)
	var em *protocol.ErrorMessage
	if !errors.As(err, &em) {
		t.Fatalf("Next() error = %v, want *ErrorMessage", err)
	}
	if !em.Fatal || em.Code != protocol.CodeServerError || !strings.Contains(em.Message, "source exhausted") {
		t.Errorf("ErrorMessage = %+v", em)
	}
}

func TestInvalidInitialSnapshot(t *testing.T) {
	h := NewHandler(
		func(*http.Request) *vdom.VNode { return nil },
		func(context.Context, *Session) error { return nil },
		WithLogger(quiet),
	)
	srv := httptest.NewServer(h)
	defer srv.Close()

	if _, err := Dial(testContext(t), wsURL(srv), nil); err == nil {
		t.Error("Dial() succeeded against an invalid initial snapshot")
	}
}

func TestPushAfterClose(t *testing.T) {
	pushed := make(chan error, 1)
	h := NewHandler(
		func(*http.Request) *vdom.VNode { return vdom.Div() },
		func(ctx context.Context, s *Session) error {
			<-s.Done()
			pushed <- s.Push(context.Background(), vdom.Span())
			return nil
		},
		WithLogger(quiet),
	)
	srv := httptest.NewServer(h)
	defer srv.Close()

	c, err := Dial(testContext(t), wsURL(srv), nil, WithClientLogger(quiet))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	c.Close()

	select {
	case err := <-pushed:
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("Push() error = %v, want ErrSessionClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not observe client close")
	}
}

// scriptedServer sends the given frames, then reports the first error
// frame it receives from the client.
func scriptedServer(t *testing.T, frames []*protocol.Frame) (*httptest.Server, <-chan *protocol.ErrorMessage) {
	t.Helper()
	reports := make(chan *protocol.ErrorMessage, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade() error = %v", err)
			return
		}
		defer conn.Close()
		for _, f := range frames {
			data, _ := f.Encode()
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := protocol.DecodeFrame(msg)
		if err != nil || frame.Type != protocol.FrameError {
			return
		}
		if em, err := protocol.DecodeErrorMessage(frame.Payload); err == nil {
			reports <- em
		}
	}))
	return srv, reports
}

func snapshotFrame(t *testing.T, root *vdom.VNode) *protocol.Frame {
	t.Helper()
	payload, err := protocol.EncodeSnapshot(&protocol.SnapshotFrame{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	return protocol.NewFrame(protocol.FrameSnapshot, payload)
}

func patchesFrame(t *testing.T, seq uint64, patches ...vdom.Patch) *protocol.Frame {
	t.Helper()
	payload, err := protocol.EncodePatches(&protocol.PatchesFrame{Seq: seq, Patches: patches})
	if err != nil {
		t.Fatal(err)
	}
	return protocol.NewFrame(protocol.FramePatches, payload)
}

func TestClientReportsFailures(t *testing.T) {
	tests := []struct {
		name     string
		frame    func(t *testing.T) *protocol.Frame
		wantErr  error
		wantCode protocol.ErrorCode
	}{
		{
			name:     "sequence gap",
			frame:    func(t *testing.T) *protocol.Frame { return patchesFrame(t, 5) },
			wantErr:  ErrSequenceGap,
			wantCode: protocol.CodeSequenceGap,
		},
		{
			name:     "unresolved index",
			frame:    func(t *testing.T) *protocol.Frame { return patchesFrame(t, 1, vdom.ChangeText(99, "x")) },
			wantErr:  vdom.ErrUnresolvedIndex,
			wantCode: protocol.CodeUnresolvedIndex,
		},
		{
			name:     "adapter rejects",
			frame:    func(t *testing.T) *protocol.Frame { return patchesFrame(t, 1, vdom.ChangeText(0, "x")) },
			wantCode: protocol.CodeApplyFailed,
		},
		{
			name: "malformed payload",
			frame: func(t *testing.T) *protocol.Frame {
				return protocol.NewFrame(protocol.FramePatches, []byte{0x01, 0x01, 0x7F, 0x00})
			},
			wantErr:  protocol.ErrInvalidPatch,
			wantCode: protocol.CodeInvalidFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, reports := scriptedServer(t, []*protocol.Frame{
				snapshotFrame(t, vdom.Div(vdom.P("a"))),
				tt.frame(t),
			})
			defer srv.Close()

			ctx := testContext(t)
			c, err := Dial(ctx, wsURL(srv), nil, WithClientLogger(quiet))
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			defer c.Close()

			_, err = c.Next(ctx)
			if err == nil {
				t.Fatal("Next() succeeded")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Next() error = %v, want %v", err, tt.wantErr)
			}

			select {
			case em := <-reports:
				if em.Code != tt.wantCode || !em.Fatal {
					t.Errorf("report = %+v, want fatal %s", em, tt.wantCode)
				}
			case <-ctx.Done():
				t.Fatal("no error report received")
			}
		})
	}
}

func TestDialRejectsNonSnapshot(t *testing.T) {
	srv, _ := scriptedServer(t, []*protocol.Frame{patchesFrame(t, 1)})
	defer srv.Close()

	_, err := Dial(testContext(t), wsURL(srv), nil)
	if !errors.Is(err, ErrUnexpectedFrame) {
		t.Errorf("Dial() error = %v, want ErrUnexpectedFrame", err)
	}
}
