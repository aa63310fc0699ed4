// Package inspector serves a small HTTP surface for looking at a running
// bridge client: health, registry snapshots and manual requests.
package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hostbridge/pkg/bridge"
	"github.com/DeBrosOfficial/hostbridge/pkg/config"
	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
	"github.com/DeBrosOfficial/hostbridge/pkg/httputil"
	"github.com/DeBrosOfficial/hostbridge/pkg/logging"
)

const maxBodyBytes = 1 << 20

// Bridge is the part of *bridge.Client the inspector reads and drives.
type Bridge interface {
	Stats() bridge.Stats
	Channels() ([]string, bool)
	Request(ctx context.Context, channel string, payload bridge.Payload) (*bridge.Call, error)
	Post(channel string, message any) error
}

// Inspector is the HTTP server exposing bridge state.
type Inspector struct {
	logger *logging.ColoredLogger
	config config.InspectorConfig
	bridge Bridge
	router chi.Router
	server *http.Server
}

// New creates an inspector for b. It returns nil when the inspector is disabled.
func New(logger *logging.ColoredLogger, cfg config.InspectorConfig, b Bridge) *Inspector {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	in := &Inspector{
		logger: logger,
		config: cfg,
		bridge: b,
		router: chi.NewRouter(),
	}

	in.router.Use(middleware.RequestID)
	in.router.Use(middleware.Recoverer)
	in.router.Use(middleware.Timeout(60 * time.Second))

	in.router.Get("/health", in.handleHealth)
	in.router.Route("/v1/bridge", func(r chi.Router) {
		r.Use(httputil.RequireBearer(cfg.AuthToken))
		r.Get("/stats", in.handleStats)
		r.Get("/channels", in.handleChannels)
		r.Post("/request", in.handleRequest)
		r.Post("/post", in.handlePost)
	})

	return in
}

// Router returns the chi router for testing or extension
func (in *Inspector) Router() chi.Router {
	return in.router
}

// Start serves until ctx is cancelled, then shuts down.
func (in *Inspector) Start(ctx context.Context) error {
	if in == nil {
		return nil
	}

	listener, err := net.Listen("tcp", in.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", in.config.ListenAddr, err)
	}
	in.server = &http.Server{Handler: in.router, ReadHeaderTimeout: 10 * time.Second}

	in.logger.ComponentInfo(logging.ComponentInspector, "inspector listening",
		zap.String("listen_addr", listener.Addr().String()))

	go func() {
		if err := in.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			in.logger.ComponentError(logging.ComponentInspector, "inspector server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	return in.Stop()
}

// Stop gracefully stops the server.
func (in *Inspector) Stop() error {
	if in == nil || in.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := in.server.Shutdown(ctx); err != nil {
		in.logger.ComponentError(logging.ComponentInspector, "inspector shutdown error", zap.Error(err))
		return err
	}
	in.logger.ComponentInfo(logging.ComponentInspector, "inspector stopped")
	return nil
}

func (in *Inspector) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := in.bridge.Stats()
	httputil.WriteSuccessWithData(w, map[string]any{
		"uptime_ms": stats.UptimeMS,
		"pending":   len(stats.Pending),
		"observers": len(stats.Observers),
	})
}

func (in *Inspector) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, in.bridge.Stats())
}

func (in *Inspector) handleChannels(w http.ResponseWriter, r *http.Request) {
	names, ok := in.bridge.Channels()
	if !ok {
		httputil.WriteHTTPError(w, httputil.ErrNotImplemented)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"channels": names})
}

type requestBody struct {
	Channel   string         `json:"channel"`
	Payload   bridge.Payload `json:"payload,omitempty"`
	TimeoutMS int64          `json:"timeout_ms,omitempty"`
}

// handleRequest issues a request through the bridge and returns the host's
// result. Without timeout_ms it waits as long as the router timeout allows.
func (in *Inspector) handleRequest(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := httputil.DecodeJSONStrict(w, r, maxBodyBytes, &body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if !in.validChannel(w, body.Channel) {
		return
	}

	ctx := r.Context()
	if body.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(body.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	call, err := in.bridge.Request(ctx, body.Channel, body.Payload)
	if err != nil {
		in.writeBridgeError(w, r, err)
		return
	}
	result, err := call.Wait(ctx)
	if err != nil {
		in.writeBridgeError(w, r, err)
		return
	}
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"result": result})
}

type postBody struct {
	Channel string          `json:"channel"`
	Message json.RawMessage `json:"message"`
}

func (in *Inspector) handlePost(w http.ResponseWriter, r *http.Request) {
	var body postBody
	if err := httputil.DecodeJSONStrict(w, r, maxBodyBytes, &body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if !in.validChannel(w, body.Channel) {
		return
	}
	if len(body.Message) == 0 {
		body.Message = json.RawMessage("null")
	}

	if err := in.bridge.Post(body.Channel, body.Message); err != nil {
		in.writeBridgeError(w, r, err)
		return
	}
	httputil.WriteSuccessWithData(w, map[string]any{"channel": body.Channel})
}

func (in *Inspector) validChannel(w http.ResponseWriter, channel string) bool {
	if !httputil.RequireNotEmpty(w, channel, "channel") {
		return false
	}
	if !httputil.ValidateChannelName(channel) {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid channel name %q", channel))
		return false
	}
	return true
}

func (in *Inspector) writeBridgeError(w http.ResponseWriter, r *http.Request, err error) {
	in.logger.ComponentWarn(logging.ComponentInspector, "bridge call failed",
		zap.String("path", r.URL.Path),
		zap.String("code", bridgeerrors.GetErrorCode(err)),
		zap.Error(err))
	bridgeerrors.WriteHTTPError(w, err, middleware.GetReqID(r.Context()))
}
