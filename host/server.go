package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/fabricio-araujo94/solid/log"
	"github.com/fabricio-araujo94/solid/renderer"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/fabricio-araujo94/solid/viewer"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// The path websocket viewer sessions are served on.
const ViewPath = "/view"

// Client request operations.
const (
	OpLoad   = "load"
	OpClear  = "clear"
	OpRotate = "rotate"
	OpZoom   = "zoom"
	OpOrbit  = "orbit"
)

// Request is a client message.
type Request struct {
	Op    string  `json:"op"`
	URL   string  `json:"url,omitempty"`
	Color string  `json:"color,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Zoom  float64 `json:"zoom,omitempty"`
	DX    float64 `json:"dx,omitempty"`
	DY    float64 `json:"dy,omitempty"`
}

// StatusMessage reports the loading state of a session.
type StatusMessage struct {
	Type    string `json:"type"`
	Loading bool   `json:"loading"`
	Error   string `json:"error"`
	Model   string `json:"model,omitempty"`
}

type ServerOptions struct {
	// Frame size for every session.
	Width, Height int

	// Options for the viewer created for each session.
	Viewer viewer.Options

	// Initial props of every session. Props.Color is also the color used by
	// load requests that do not specify one. Defaults to DefaultProps().
	Props *Props

	// Deadline for writing a single message.
	WriteTimeout time.Duration
}

// Server hosts one viewer per websocket connection. Clients drive the viewer
// with JSON requests and receive status messages and PNG frames.
type Server struct {
	logger   log.Logger
	opts     ServerOptions
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	// Cancelled by Close; ends every open session.
	ctx      context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup

	// Guards closed and sessions.Add.
	mu     sync.Mutex
	closed bool
}

func NewServer(opts ServerOptions) *Server {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Viewer.FrameRate <= 0 {
		opts.Viewer.FrameRate = viewer.DefaultFrameRate
	}
	if opts.Props == nil {
		props := DefaultProps()
		opts.Props = &props
	}

	s := &Server{
		logger: log.New("view server"),
		opts:   opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		mux: http.NewServeMux(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mux.HandleFunc(ViewPath, s.serveView)
	return s
}

// Close ends all open sessions and waits for their viewers to be disposed.
// Connections arriving afterwards are refused.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.sessions.Wait()
}

// Register a new session. Returns false once the server is closed.
func (s *Server) trackSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions.Add(1)
	return true
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down and
// waits for open sessions to dispose their viewers.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Noticef("serving viewer sessions on ws://%s%s", addr, ViewPath)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	})

	return g.Wait()
}

func (s *Server) serveView(w http.ResponseWriter, r *http.Request) {
	if !s.trackSession() {
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}
	defer s.sessions.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warningf("websocket upgrade failed: %s", err)
		return
	}

	sess, err := s.newSession(conn)
	if err != nil {
		s.logger.Errorf("could not start session for %s: %s", r.RemoteAddr, err)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "viewer unavailable"))
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	s.logger.Infof("session started for %s", r.RemoteAddr)
	err = sess.run(ctx)
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = nil
	}
	if err != nil {
		s.logger.Debugf("session for %s ended: %s", r.RemoteAddr, err)
	}
	s.logger.Infof("session closed for %s", r.RemoteAddr)
}

// A single client connection and the viewer it drives.
type session struct {
	conn *websocket.Conn
	opts ServerOptions

	viewer  *viewer.Viewer
	binding *Binding

	// Only the writer goroutine writes to conn.
	status chan StatusMessage
	frames chan *image.RGBA
}

func (s *Server) newSession(conn *websocket.Conn) (*session, error) {
	v := viewer.New(s.opts.Viewer)
	binding := NewBinding(v, *s.opts.Props)
	if _, err := binding.Mount(renderer.NewImageSurface(s.opts.Width, s.opts.Height)); err != nil {
		v.Dispose()
		return nil, err
	}

	return &session{
		conn:    conn,
		opts:    s.opts,
		viewer:  v,
		binding: binding,
		status:  make(chan StatusMessage, 16),
		frames:  make(chan *image.RGBA, 1),
	}, nil
}

func (s *session) run(ctx context.Context) error {
	defer s.binding.Unmount()

	stopFrames := s.viewer.Canvas().OnPresent(s.queueFrame)
	defer stopFrames()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.readLoop(ctx)
	})
	g.Go(func() error {
		return s.writeLoop(ctx)
	})
	g.Go(func() error {
		// Unblock the reader once the session winds down.
		<-ctx.Done()
		return s.conn.Close()
	})
	return g.Wait()
}

// Keep only the most recent frame.
func (s *session) queueFrame(frame *image.RGBA) {
	select {
	case s.frames <- frame:
		return
	default:
	}
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- frame:
	default:
	}
}

func (s *session) readLoop(ctx context.Context) error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}

		var req Request
		if err = json.Unmarshal(data, &req); err != nil {
			s.sendStatus(ctx, fmt.Sprintf("malformed request: %s", err))
			continue
		}
		if err = s.handle(ctx, req); err != nil {
			s.sendStatus(ctx, err.Error())
		}
	}
}

func (s *session) handle(ctx context.Context, req Request) error {
	switch req.Op {
	case OpLoad:
		color := s.opts.Props.Color
		if req.Color != "" {
			var err error
			if color, err = scene.ParseColor(req.Color); err != nil {
				return err
			}
		}
		load, err := s.binding.Load(req.URL, color)
		if err != nil {
			return err
		}
		s.sendStatus(ctx, "")
		if load != nil {
			go s.reportLoad(ctx, load)
		}
		return nil
	case OpClear:
		if _, err := s.binding.SetModelURL(""); err != nil {
			return err
		}
		s.sendStatus(ctx, "")
		return nil
	case OpRotate:
		return s.binding.SetRotation(req.X, req.Y)
	case OpZoom:
		return s.binding.SetZoom(req.Zoom)
	case OpOrbit:
		return s.viewer.Orbit(req.DX, req.DY)
	}
	return fmt.Errorf("unknown op %q", req.Op)
}

// Send a status message once load completes. Superseded loads stay silent;
// the request that replaced them reports instead.
func (s *session) reportLoad(ctx context.Context, load *viewer.Load) {
	select {
	case <-load.Done():
	case <-ctx.Done():
		return
	}

	switch err := load.Err(); {
	case err == nil:
		if err = s.binding.ApplyRotation(); err != nil {
			s.sendStatus(ctx, err.Error())
			return
		}
		s.sendStatus(ctx, "")
	case errors.Is(err, viewer.ErrSuperseded), errors.Is(err, viewer.ErrDisposed):
	default:
		s.sendStatus(ctx, err.Error())
	}
}

func (s *session) sendStatus(ctx context.Context, errMsg string) {
	st := s.viewer.Status()
	msg := StatusMessage{
		Type:    "status",
		Loading: st.State == viewer.Loading,
		Error:   errMsg,
		Model:   st.ModelURL,
	}
	select {
	case s.status <- msg:
	case <-ctx.Done():
	}
}

func (s *session) writeLoop(ctx context.Context) error {
	var buf bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.status:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := s.conn.WriteJSON(msg); err != nil {
				return err
			}
		case frame := <-s.frames:
			buf.Reset()
			if err := png.Encode(&buf, frame); err != nil {
				return fmt.Errorf("host: could not encode frame: %w", err)
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
				return err
			}
		}
	}
}
