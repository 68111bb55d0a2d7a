package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/lanjack/internal/game"
	"github.com/lox/lanjack/internal/protocol"
	"github.com/lox/lanjack/internal/randutil"
)

// Server hosts blackjack sessions. It accepts TCP connections, runs one
// session per client, and announces itself over UDP so clients on the
// LAN can find it without knowing the address.
type Server struct {
	cfg    *Config
	clock  quartz.Clock
	bus    game.EventBus
	logger *log.Logger

	listener net.Listener
	ready    chan struct{}

	sessions   map[*session]bool
	register   chan *session
	unregister chan *session
	mu         sync.RWMutex
	wg         sync.WaitGroup

	baseSeed int64
}

// NewServer creates a server from cfg. The clock is injected so tests
// can drive timeouts without waiting on wall time.
func NewServer(cfg *Config, clock quartz.Clock, logger *log.Logger) *Server {
	seed := cfg.Seed
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}

	return &Server{
		cfg:        cfg,
		clock:      clock,
		bus:        game.NewEventBus(),
		logger:     logger.WithPrefix("server"),
		ready:      make(chan struct{}),
		sessions:   make(map[*session]bool),
		register:   make(chan *session),
		unregister: make(chan *session),
		baseSeed:   seed,
	}
}

// Events returns the bus session events are published on. Subscribe
// before calling Run to observe every session.
func (s *Server) Events() game.EventBus {
	return s.bus
}

// Run starts the listener, discovery broadcaster, and monitor, then
// blocks until ctx is cancelled or a component fails. Remaining
// sessions are closed on the way out.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp4", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.ListenAddr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	close(s.ready)

	port := listener.Addr().(*net.TCPAddr).Port
	s.logger.Info("Hosting blackjack", "name", s.cfg.Name, "addr", listener.Addr().String())

	offer := protocol.Offer{TCPPort: uint16(port), HostName: s.cfg.Name}
	broadcaster := NewBroadcaster(s.cfg.DiscoveryTarget(), offer, s.cfg.BroadcastInterval, s.clock, s.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		listener.Close()
		return nil
	})
	g.Go(func() error {
		return s.acceptLoop(ctx, listener)
	})
	g.Go(func() error {
		s.registry(ctx)
		return nil
	})
	g.Go(func() error {
		return broadcaster.Run(ctx)
	})

	if s.cfg.MonitorAddr != "" {
		monitor := NewMonitor(s.cfg.MonitorAddr, s.SessionCount, s.logger)
		s.bus.Subscribe(monitor)
		g.Go(func() error {
			defer s.bus.Unsubscribe(monitor)
			return monitor.Run(ctx)
		})
	}

	err = g.Wait()

	s.mu.Lock()
	for sess := range s.sessions {
		sess.close()
		delete(s.sessions, sess)
	}
	s.mu.Unlock()
	s.wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Ready is closed once the TCP listener is bound, after which Addr and
// Port report real values.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the listener address, or nil before Run binds it.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound TCP port, or 0 before Run binds it.
func (s *Server) Port() int {
	addr, ok := s.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}
	return addr.Port
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) error {
	var id uint64
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		id++
		sess := newSession(id, conn, s.cfg, s.clock, randutil.New(s.baseSeed+int64(id)), s.bus, s.logger)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()

			select {
			case s.register <- sess:
			case <-ctx.Done():
				sess.close()
				return
			}

			sess.run(ctx)

			select {
			case s.unregister <- sess:
			case <-ctx.Done():
				sess.close()
			}
		}()
	}
}

// registry tracks live sessions so shutdown can close them and the
// monitor can count them.
func (s *Server) registry(ctx context.Context) {
	for {
		select {
		case sess := <-s.register:
			s.mu.Lock()
			s.sessions[sess] = true
			total := len(s.sessions)
			s.mu.Unlock()
			s.logger.Info("Client connected", "remote", sess.conn.RemoteAddr().String(), "total", total)

		case sess := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.sessions[sess]; ok {
				delete(s.sessions, sess)
				sess.close()
			}
			total := len(s.sessions)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)

		case <-ctx.Done():
			return
		}
	}
}
