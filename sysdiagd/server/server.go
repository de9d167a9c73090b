package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"sysdiag/internals/diag"
	"sysdiag/internals/gemini"
	"sysdiag/internals/taskq"
	"sysdiag/sdk"
	"sysdiag/sysdiagd/baseserver"
)

type Server struct {
	Base       *baseserver.BaseServer
	Service    *diag.Service
	queue      *taskq.Queue
	httpServer *http.Server
}

func New() *Server {
	base := baseserver.New()

	aiConfig := gemini.DefaultConfig(base.Env.GEMINI_API_KEY)
	aiConfig.Model = base.Config.AI.Model
	ai, err := gemini.New(context.Background(), aiConfig)
	if err != nil {
		log.Fatal("[Sysdiag] Failed to initialize AI client: ", err)
	}
	if base.Env.GEMINI_API_KEY == "" {
		base.Logger.Warn("GEMINI_API_KEY not set, diagnostic tasks will fail until configured")
	}

	store := diag.NewMemoryStore()
	queue := taskq.New(base.Config.Queue.Workers, base.Config.Queue.Capacity)
	timeout := time.Duration(base.Config.AI.TimeoutSeconds) * time.Second
	processor := diag.NewProcessor(store, ai, base.Logger, timeout)
	service := diag.NewService(store, queue, processor, ai, base.Logger)

	return &Server{
		Base:    base,
		Service: service,
		queue:   queue,
	}
}

// SafeStart starts the daemon in the background unless one is already
// answering on the configured port.
func (s *Server) SafeStart() error {
	if sdk.IsRunning(s.Base.Env.BASE_URL) {
		return nil
	}

	go func() {
		s.Base.Logger.Info("starting server")
		err := s.Start()
		if err != nil {
			log.Fatal("[Sysdiag] Failed to start server: " + err.Error())
		}
	}()

	if sdk.WaitForStart(s.Base.Env.BASE_URL, s.Base.Logger) {
		return nil
	}

	return errors.New("Couldn't start server")
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Base.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}

	s.queue.Start(context.Background())

	server := &http.Server{
		Handler: s.Router(),
	}
	s.httpServer = server
	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if s.httpServer == nil {
			s.Base.Logger.Error("shutdown failed", "error", errors.New("server not initialized"))
			return
		}
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Base.Logger.Error("shutdown failed", "error", err)
		}
		s.queue.Stop()
		s.Base.Close()
	}()
}
