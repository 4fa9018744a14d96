package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/vpatch/pkg/dom"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Client errors.
var (
	ErrSequenceGap     = errors.New("stream: frame out of sequence")
	ErrUnexpectedFrame = errors.New("stream: unexpected frame type")
)

// Client is the remote end of a session: it owns a dom.Document and keeps
// its live tree in step with the server. A Client is not safe for
// concurrent use.
type Client struct {
	conn   *websocket.Conn
	doc    *dom.Document
	root   *dom.Node
	seq    uint64
	limits protocol.Limits
	logger *slog.Logger
}

// Dial connects to url, reads the initial snapshot frame and materializes
// it.
func Dial(ctx context.Context, url string, header http.Header, opts ...ClientOption) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, errors.Wrapf(err, "stream: dial %s", url)
	}

	c := &Client{
		conn:   conn,
		doc:    dom.NewDocument(),
		limits: protocol.DefaultLimits(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	frame, err := c.readFrame(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if frame.Type != protocol.FrameSnapshot {
		conn.Close()
		return nil, errors.Wrapf(ErrUnexpectedFrame, "got %s, want Snapshot", frame.Type)
	}
	sf, err := protocol.DecodeSnapshot(frame.Payload)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "stream: decode snapshot")
	}
	root, err := c.doc.Create(sf.Root)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "stream: create root")
	}
	c.root = root
	c.seq = sf.Seq
	c.logger.Debug("snapshot received", "seq", sf.Seq, "nodes", vdom.Count(sf.Root))
	return c, nil
}

func (c *Client) readFrame(ctx context.Context) (*protocol.Frame, error) {
	// A zero deadline clears any previous one.
	deadline, _ := ctx.Deadline()
	c.conn.SetReadDeadline(deadline)

	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return nil, errors.Wrap(err, "stream: read")
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return nil, errors.Wrap(err, "stream: decode frame")
	}
	if frame.Type == protocol.FrameError {
		em, err := protocol.DecodeErrorMessage(frame.Payload)
		if err != nil {
			return nil, errors.Wrap(err, "stream: decode error frame")
		}
		return nil, em
	}
	return frame, nil
}

// Next blocks for the next patches frame and applies it to the live tree.
// It returns the applied frame. Errors from the server arrive as
// *protocol.ErrorMessage; a sequence gap or failed apply is reported to
// the server before being returned.
func (c *Client) Next(ctx context.Context) (*protocol.PatchesFrame, error) {
	frame, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	if frame.Type != protocol.FramePatches {
		return nil, errors.Wrapf(ErrUnexpectedFrame, "got %s, want Patches", frame.Type)
	}

	pf, err := protocol.DecodePatchesFrom(protocol.NewDecoderWithLimits(frame.Payload, c.limits))
	if err != nil {
		c.report(protocol.NewFatalError(protocol.CodeInvalidFrame, err.Error()))
		return nil, errors.Wrap(err, "stream: decode patches")
	}
	if pf.Seq != c.seq+1 {
		err := errors.Wrapf(ErrSequenceGap, "got %d, want %d", pf.Seq, c.seq+1)
		c.report(protocol.NewFatalError(protocol.CodeSequenceGap, err.Error()))
		return nil, err
	}

	root, err := vdom.Apply[*dom.Node](c.doc, c.root, pf.Patches)
	c.root = root
	if err != nil {
		code := protocol.CodeApplyFailed
		if errors.Is(err, vdom.ErrUnresolvedIndex) {
			code = protocol.CodeUnresolvedIndex
		}
		c.report(protocol.NewFatalError(code, err.Error()))
		return nil, errors.Wrapf(err, "stream: apply frame %d", pf.Seq)
	}
	c.seq = pf.Seq
	c.logger.Debug("patches applied", "seq", pf.Seq, "patches", len(pf.Patches))
	return pf, nil
}

func (c *Client) report(em *protocol.ErrorMessage) {
	f := protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em))
	data, err := f.Encode()
	if err == nil {
		c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		err = c.conn.WriteMessage(websocket.BinaryMessage, data)
	}
	if err != nil {
		c.logger.Debug("error report not sent", "error", err)
	}
}

// Root returns the live root.
func (c *Client) Root() *dom.Node { return c.root }

// Document returns the document that owns the live tree.
func (c *Client) Document() *dom.Document { return c.doc }

// Seq returns the sequence number of the last applied frame.
func (c *Client) Seq() uint64 { return c.seq }

// Close closes the connection.
func (c *Client) Close() error {
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}

// String describes the client for debugging.
func (c *Client) String() string {
	return fmt.Sprintf("Client{seq: %d, remote: %s}", c.seq, c.conn.RemoteAddr())
}
