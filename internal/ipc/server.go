package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webbertakken/camera-core/internal/camera"
	"github.com/webbertakken/camera-core/internal/config"
	"github.com/webbertakken/camera-core/internal/health"
	"github.com/webbertakken/camera-core/internal/logging"
	"github.com/webbertakken/camera-core/internal/security"
	"github.com/webbertakken/camera-core/internal/settings"
)

// Server is the JSON-RPC 2.0 over WebSocket listener described in §4.7: a
// single accepted client, a fixed method registry, and three push
// notification kinds. Grounded on the teacher's
// internal/websocket.WebSocketServer, stripped of the RBAC/rate-limiting
// machinery a single trusted local client doesn't need.
type Server struct {
	cfg      *config.ServerConfig
	validator *security.TokenValidator // nil when security.require_auth is false

	backend    camera.Backend
	sessions   *Sessions
	store      *settings.Store
	frameCache *FrameCache
	health     *health.Reporter
	pool       camera.BoundedWorkerPool

	methods map[string]handlerFunc
	logger  *logging.Logger

	httpServer *http.Server
	upgrader   websocket.Upgrader
	running    int32

	clientMu sync.Mutex
	client   *ClientConnection

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer wires every dependency the method registry needs. validator may
// be nil, in which case the WebSocket upgrade is unauthenticated.
func NewServer(
	cfg *config.ServerConfig,
	validator *security.TokenValidator,
	backend camera.Backend,
	store *settings.Store,
	sessions *Sessions,
	pool camera.BoundedWorkerPool,
	healthReporter *health.Reporter,
) *Server {
	s := &Server{
		cfg:        cfg,
		validator:  validator,
		backend:    backend,
		sessions:   sessions,
		store:      store,
		frameCache: NewFrameCache(),
		health:     healthReporter,
		pool:       pool,
		methods:    make(map[string]handlerFunc),
		logger:     logging.NewLogger("ipc-server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		stopChan: make(chan struct{}),
	}
	s.registerMethods()
	return s
}

func (s *Server) registerMethods() {
	s.methods["list_cameras"] = handleListCameras
	s.methods["get_camera_controls"] = handleGetCameraControls
	s.methods["get_camera_formats"] = handleGetCameraFormats
	s.methods["set_camera_control"] = handleSetCameraControl
	s.methods["reset_camera_control"] = handleResetCameraControl
	s.methods["start_preview"] = handleStartPreview
	s.methods["stop_preview"] = handleStopPreview
	s.methods["get_frame"] = handleGetFrame
	s.methods["get_thumbnail"] = handleGetThumbnail
	s.methods["get_diagnostics"] = handleGetDiagnostics
	s.methods["reset_to_defaults"] = handleResetToDefaults
	s.methods["get_saved_settings"] = handleGetSavedSettings
	s.methods["get_system_health"] = handleGetSystemHealth
}

// Start begins listening. Like the teacher's WebSocketServer, the HTTP
// server runs in its own goroutine and Start returns once that goroutine is
// launched, not once it's actually accepting connections.
func (s *Server) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return fmt.Errorf("ipc server is already running")
	}
	if s.pool != nil {
		if err := s.pool.Start(context.Background()); err != nil {
			return fmt.Errorf("start worker pool: %w", err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.WebSocketPath, s.handleUpgrade)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("ipc server failed")
		}
	}()

	s.logger.WithFields(logging.Fields{"host": s.cfg.Host, "port": s.cfg.Port, "path": s.cfg.WebSocketPath}).
		Info("ipc server started")
	return nil
}

// Stop gracefully closes the accepted client connection, shuts down the
// HTTP listener, and stops the worker pool, in that order, honoring ctx's
// deadline.
func (s *Server) Stop(ctx context.Context) error {
	if atomic.LoadInt32(&s.running) == 0 {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stopChan) })

	s.clientMu.Lock()
	if s.client != nil {
		s.client.Conn.Close()
	}
	s.clientMu.Unlock()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Warn("ipc server shutdown error")
		}
	}

	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if s.pool != nil {
		if err := s.pool.Stop(ctx); err != nil {
			s.logger.WithError(err).Warn("worker pool shutdown error")
		}
	}

	atomic.StoreInt32(&s.running, 0)
	s.logger.Info("ipc server stopped")
	return nil
}

func (s *Server) authenticate(r *http.Request) error {
	if s.validator == nil {
		return nil
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		return fmt.Errorf("missing token query parameter")
	}
	_, err := s.validator.ValidateToken(token)
	return err
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if err := s.authenticate(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Error("websocket upgrade failed")
		return
	}

	client := newClientConnection("client_"+strconv.FormatInt(time.Now().UnixNano(), 10), conn)
	client.Authenticated = s.validator == nil

	s.clientMu.Lock()
	previous := s.client
	s.client = client
	s.clientMu.Unlock()
	if previous != nil {
		previous.Conn.Close()
	}

	s.wg.Add(1)
	go s.serveClient(client)
}

func (s *Server) serveClient(client *ClientConnection) {
	defer s.wg.Done()
	defer func() {
		s.clientMu.Lock()
		if s.client == client {
			s.client = nil
		}
		s.clientMu.Unlock()
		client.Conn.Close()
	}()

	conn := client.Conn
	conn.SetReadLimit(int64(s.cfg.MaxMessageSize))
	conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		return nil
	})

	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-s.stopChan:
				return
			case <-done:
				return
			case <-ticker.C:
				if !s.writeControl(client, websocket.PingMessage) {
					return
				}
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(client, message)
	}
}

func (s *Server) writeControl(client *ClientConnection, messageType int) bool {
	<-client.writeMu
	defer func() { client.writeMu <- struct{}{} }()
	client.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return client.Conn.WriteControl(messageType, nil, time.Now().Add(s.cfg.WriteTimeout)) == nil
}

func (s *Server) handleMessage(client *ClientConnection, message []byte) {
	var req JsonRpcRequest
	if err := json.Unmarshal(message, &req); err != nil {
		s.send(client, &JsonRpcResponse{JSONRPC: "2.0", Error: newError(InvalidRequest, "invalid JSON-RPC request")})
		return
	}
	if req.JSONRPC != "2.0" {
		s.send(client, &JsonRpcResponse{JSONRPC: "2.0", ID: req.ID, Error: newError(InvalidRequest, "jsonrpc must be \"2.0\"")})
		return
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		s.send(client, &JsonRpcResponse{JSONRPC: "2.0", ID: req.ID, Error: newError(MethodNotFound, "method not found: "+req.Method)})
		return
	}

	dispatch := func(ctx context.Context) {
		result, err := handler(s, ctx, req.Params)
		resp := &JsonRpcResponse{JSONRPC: "2.0", ID: req.ID}
		if err != nil {
			resp.Error = s.errorFor(err)
		} else {
			resp.Result = result
		}
		s.send(client, resp)
	}

	if s.pool == nil {
		dispatch(context.Background())
		return
	}
	if err := s.pool.Submit(context.Background(), dispatch); err != nil {
		s.send(client, &JsonRpcResponse{JSONRPC: "2.0", ID: req.ID, Error: newError(InternalError, "server busy, try again")})
	}
}

func (s *Server) errorFor(err error) *JsonRpcError {
	if ipcErr, ok := err.(*ipcError); ok {
		return newError(ipcErr.code, ipcErr.message)
	}
	return toJsonRpcError(err)
}

func (s *Server) send(client *ClientConnection, v interface{}) {
	<-client.writeMu
	defer func() { client.writeMu <- struct{}{} }()
	client.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := client.Conn.WriteJSON(v); err != nil {
		s.logger.WithError(err).Debug("failed to write to client, connection likely closed")
	}
}

// pushNotification sends an unsolicited JSON-RPC notification to the
// currently connected client, if any. Silently drops the event when no
// client is connected — there is nothing to buffer it for.
func (s *Server) pushNotification(method string, params map[string]interface{}) {
	s.clientMu.Lock()
	client := s.client
	s.clientMu.Unlock()
	if client == nil {
		return
	}
	s.send(client, &JsonRpcNotification{JSONRPC: "2.0", Method: method, Params: params})
}

// OnAppEvent adapts camera.AppEventSink to the camera-hotplug and
// settings-restored push notifications, for the hotplug bridge to call
// directly (preview-error is sent by OnPreviewError).
func (s *Server) OnAppEvent(evt camera.AppEvent) {
	switch evt.Type {
	case camera.AppEventCameraHotplug:
		payload, _ := structToMap(evt.Hotplug)
		s.pushNotification("camera-hotplug", payload)
	case camera.AppEventSettingsRestored:
		s.pushNotification("settings-restored", map[string]interface{}{
			"deviceId":        evt.DeviceID.String(),
			"cameraName":      evt.CameraName,
			"controlsApplied": evt.ControlsApplied,
		})
	}
}

// OnPreviewError is wired as the Sessions onFatal callback: a capture
// session that fails after starting raises a preview-error notification
// with an already human-translated message.
func (s *Server) OnPreviewError(deviceID camera.DeviceId, message string) {
	s.pushNotification("preview-error", map[string]interface{}{
		"deviceId": deviceID.String(),
		"error":    message,
	})
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
