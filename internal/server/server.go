// Package server exposes the Luma VM over Connect, gRPC and a plain JSON
// endpoint used by the web playground.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Z2ZATL/Luma-CL/internal/config"
)

var log = commonlog.GetLogger("luma.server")

const (
	// RunServiceName is the fully qualified service name.
	RunServiceName = "luma.v1.RunService"

	ExecuteProcedure      = "/" + RunServiceName + "/Execute"
	OpenSessionProcedure  = "/" + RunServiceName + "/OpenSession"
	CloseSessionProcedure = "/" + RunServiceName + "/CloseSession"
	DisassembleProcedure  = "/" + RunServiceName + "/Disassemble"

	// LegacyRunPath is the playground endpoint.
	LegacyRunPath = "/api/run-luma"
)

// LumaServer serves the RunService over Connect (HTTP) and, optionally,
// gRPC on a separate listener.
type LumaServer struct {
	settings config.ServerSettings
	sessions *SessionStore
	service  *RunService
	mux      *http.ServeMux
	grpc     *grpc.Server

	stopSweeper func()
}

// New creates a server from settings and starts the session sweeper.
func New(settings config.ServerSettings) *LumaServer {
	sessions := NewSessionStore()
	s := &LumaServer{
		settings: settings,
		sessions: sessions,
		service:  NewRunService(sessions, settings.ExecTimeout()),
		mux:      http.NewServeMux(),
	}

	s.mux.Handle(ExecuteProcedure, connect.NewUnaryHandler(ExecuteProcedure, s.execute))
	s.mux.Handle(OpenSessionProcedure, connect.NewUnaryHandler(OpenSessionProcedure, s.openSession))
	s.mux.Handle(CloseSessionProcedure, connect.NewUnaryHandler(CloseSessionProcedure, s.closeSession))
	s.mux.Handle(DisassembleProcedure, connect.NewUnaryHandler(DisassembleProcedure, s.disassemble))
	s.mux.Handle(LegacyRunPath, newLegacyHandler(s.service, settings.ExecTimeout()))

	s.grpc = grpc.NewServer()
	s.grpc.RegisterService(&runServiceDesc, s.service)

	ttl := settings.IdleTTL()
	s.stopSweeper = sessions.StartSweeper(sweepInterval(ttl), ttl)
	return s
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl < 2*time.Minute {
		return ttl / 2
	}
	return time.Minute
}

// Handler returns the HTTP handler carrying every Connect route and the
// playground endpoint.
func (s *LumaServer) Handler() http.Handler {
	return s.mux
}

// GRPCServer returns the gRPC server with the RunService registered.
func (s *LumaServer) GRPCServer() *grpc.Server {
	return s.grpc
}

// Sessions returns the session store.
func (s *LumaServer) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe serves HTTP on settings.Addr and, when settings.GRPCAddr is
// set, gRPC on that address. It returns when ctx is cancelled or a listener
// fails.
func (s *LumaServer) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{Addr: s.settings.Addr, Handler: s.mux}
	errs := make(chan error, 2)

	go func() {
		log.Noticef("Luma server listening on %s", s.settings.Addr)
		log.Noticef("  Connect (HTTP/JSON): http://%s%s", s.settings.Addr, ExecuteProcedure)
		log.Noticef("  Playground:          http://%s%s", s.settings.Addr, LegacyRunPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	if s.settings.GRPCAddr != "" {
		lis, err := net.Listen("tcp", s.settings.GRPCAddr)
		if err != nil {
			httpServer.Close()
			return err
		}
		go func() {
			log.Noticef("  gRPC (binary):       grpc://%s", s.settings.GRPCAddr)
			if err := s.grpc.Serve(lis); err != nil {
				errs <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errs:
		s.shutdown(httpServer)
		return err
	}
	s.shutdown(httpServer)
	return nil
}

func (s *LumaServer) shutdown(httpServer *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warningf("http shutdown: %s", err)
	}
	s.grpc.GracefulStop()
}

// Stop shuts down the sweeper and closes every session.
func (s *LumaServer) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
		s.stopSweeper = nil
	}
	s.sessions.Sweep(0)
}

// ---------------------------------------------------------------------------
// Connect handlers
// ---------------------------------------------------------------------------

func (s *LumaServer) execute(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	res, err := executeRequest(ctx, s.service, req.Msg)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(res), nil
}

func (s *LumaServer) openSession(_ context.Context, _ *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return connect.NewResponse(openSessionRequest(s.service)), nil
}

func (s *LumaServer) closeSession(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	res, err := closeSessionRequest(s.service, req.Msg)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(res), nil
}

func (s *LumaServer) disassemble(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	res, err := disassembleRequest(s.service, req.Msg)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(res), nil
}

func connectError(err error) error {
	switch {
	case errors.Is(err, ErrNoCode):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrSessionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrTimeout):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		// Compile failures from Disassemble.
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
}
