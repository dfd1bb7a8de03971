// Package relay assembles the config, store, validator, and dispatcher
// into a running Core and mounts the three gateway surfaces (native,
// NIP-01, HTTP) behind their enablement flags. It plays the role the
// teacher's Server/Relay pair played, but there is no pluggable
// relay.I/server.I boundary left to hold: this relay has exactly one
// storage backend and one engine, so Server owns a *core.Core directly.
package relay

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"aether.dev/pkg/app/config"
	"aether.dev/pkg/app/relay/helpers"
	"aether.dev/pkg/core"
	"aether.dev/pkg/database"
	"aether.dev/pkg/encoders/hex"
	"aether.dev/pkg/protocol/dispatcher"
	"aether.dev/pkg/protocol/httpapi"
	"aether.dev/pkg/protocol/nip01"
	"aether.dev/pkg/protocol/validator"
	"aether.dev/pkg/protocol/ws"
	"aether.dev/pkg/utils/chk"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/log"
)

// Server owns the relay engine and the listeners for whichever gateway
// surfaces are enabled.
type Server struct {
	Ctx    context.T
	Cancel context.F
	C      *config.C
	Core   *core.Core
	Store  *database.D

	nativeServer *http.Server
	httpServer   *http.Server
}

// New opens storage and wires the validator, dispatcher, and Core from
// cfg. It does not start listening; call Start for that.
func New(ctx context.T, cancel context.F, cfg *config.C) (s *Server, err error) {
	var store *database.D
	if store, err = database.New(ctx, cancel, cfg.DataDir, cfg.TTL, cfg.InMemory()); chk.E(err) {
		return nil, err
	}

	val := validator.New(
		validator.Config{
			MaxSkew:          time.Duration(cfg.MaxSkewSeconds) * time.Second,
			MinPowDifficulty: cfg.MinPowDifficulty,
		},
	)
	disp := dispatcher.New()

	var owners [][]byte
	for _, o := range cfg.Owners {
		pk, decErr := hex.Dec(o)
		if decErr != nil {
			log.W.F("relay: ignoring malformed owner pubkey %q: %v", o, decErr)
			continue
		}
		owners = append(owners, pk)
	}

	s = &Server{
		Ctx:    ctx,
		Cancel: cancel,
		C:      cfg,
		Core:   core.New(store, disp, val, owners),
		Store:  store,
	}
	return s, nil
}

// Start brings up every gateway surface cfg enables, and blocks until one
// of the listeners returns (normally only on Shutdown). started channels,
// if given, are closed as soon as the enabled listeners' goroutines are
// launched, without waiting for them to accept connections.
func (s *Server) Start(started ...chan bool) (err error) {
	go s.MonitorResources(s.Ctx)

	errCh := make(chan error, 2)
	running := 0

	if s.C.EnableNative || s.C.EnableNIP01 {
		addr := net.JoinHostPort(s.C.ListenAddr, strconv.Itoa(s.C.Port))
		mux := chi.NewRouter()
		if s.C.EnableNative {
			mux.Get("/", s.serveNativeRoot)
		}
		if s.C.EnableNIP01 {
			mux.Get(s.C.NIP01Path, s.serveNIP01)
		}
		mux.Get("/metrics", s.MetricsHandler)
		s.nativeServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 7 * time.Second,
			IdleTimeout:       28 * time.Second,
		}
		log.I.F("relay: native/NIP-01 gateway listening at %s", addr)
		running++
		go func() {
			lErr := s.nativeServer.ListenAndServe()
			if !errors.Is(lErr, http.ErrServerClosed) {
				errCh <- lErr
			} else {
				errCh <- nil
			}
		}()
	}

	if s.C.EnableHTTP {
		addr := net.JoinHostPort(s.C.ListenAddr, strconv.Itoa(s.C.HTTPPort))
		router := chi.NewRouter()
		httpapi.New(s.Core, "/v1", router)
		router.Get("/metrics", s.MetricsHandler)
		s.httpServer = &http.Server{
			Addr:              addr,
			Handler:           cors.Default().Handler(router),
			ReadHeaderTimeout: 7 * time.Second,
			IdleTimeout:       28 * time.Second,
		}
		log.I.F("relay: HTTP adapter listening at %s", addr)
		running++
		go func() {
			lErr := s.httpServer.ListenAndServe()
			if !errors.Is(lErr, http.ErrServerClosed) {
				errCh <- lErr
			} else {
				errCh <- nil
			}
		}()
	}

	for _, startedC := range started {
		close(startedC)
	}

	for i := 0; i < running; i++ {
		if lErr := <-errCh; lErr != nil {
			return lErr
		}
	}
	return nil
}

// serveNativeRoot answers the root path: a WebSocket upgrade runs the
// native Codec/Session protocol, an "Accept: application/nostr+json"
// request gets the relay's self-description document, anything else is
// whitelist-gated and rejected.
func (s *Server) serveNativeRoot(w http.ResponseWriter, r *http.Request) {
	if !s.whitelisted(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if r.Header.Get("Upgrade") == "websocket" {
		ws.Serve(s.Ctx, w, r, s.Core)
		return
	}
	if r.Header.Get("Accept") == "application/nostr+json" {
		s.ServeInfo(w, r)
		return
	}
	http.NotFound(w, r)
}

func (s *Server) serveNIP01(w http.ResponseWriter, r *http.Request) {
	if !s.whitelisted(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	nip01.Serve(s.Ctx, w, r, s.Core)
}

func (s *Server) whitelisted(r *http.Request) bool {
	if len(s.C.Whitelist) == 0 {
		return true
	}
	remote := helpers.GetRemoteFromReq(r)
	for _, addr := range s.C.Whitelist {
		if strings.HasPrefix(remote, addr) {
			return true
		}
	}
	return false
}

// Shutdown cancels the relay's context, closes the store, and shuts down
// every listening server.
func (s *Server) Shutdown() {
	log.I.Ln("relay: shutting down")
	s.Cancel()
	if s.nativeServer != nil {
		chk.E(s.nativeServer.Shutdown(context.Bg()))
	}
	if s.httpServer != nil {
		chk.E(s.httpServer.Shutdown(context.Bg()))
	}
	chk.E(s.Store.Close())
}
