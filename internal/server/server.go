package server

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"gofunko/internal/domain"
	"gofunko/internal/pkg/logger"
	"gofunko/internal/pkg/ratelimit"
)

// Server é o Session Listener: aceita conexões e dispara um Session Worker
// por conexão. Os Workers não compartilham estado entre si além dos
// singletons injetados (serviço de catálogo, serviço de usuário, limiter).
type Server struct {
	addr    string
	tlsCfg  *tls.Config // nil = TCP puro (apenas desenvolvimento/teste)
	funkos  domain.FunkoService
	users   domain.UserService
	limiter *ratelimit.Limiter
	logger  logger.Logger

	listener   net.Listener
	clientSeq  atomic.Int64
	wg         sync.WaitGroup
	inShutdown atomic.Bool

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// New cria o Server com os serviços compartilhados já construídos.
func New(addr string, tlsCfg *tls.Config, funkos domain.FunkoService, users domain.UserService, limiter *ratelimit.Limiter, log logger.Logger) *Server {
	return &Server{
		addr:    addr,
		tlsCfg:  tlsCfg,
		funkos:  funkos,
		users:   users,
		limiter: limiter,
		logger:  log,
		conns:   make(map[net.Conn]struct{}),
	}
}

// ListenAndServe abre o listener (TLS quando configurado) e entra no loop
// de accept até o Shutdown. Cada conexão aceita ganha seu próprio Worker
// em uma goroutine; sessões nunca bloqueiam umas às outras.
func (s *Server) ListenAndServe() error {
	var (
		ln  net.Listener
		err error
	)

	if s.tlsCfg != nil {
		ln, err = tls.Listen("tcp", s.addr, s.tlsCfg)
	} else {
		ln, err = net.Listen("tcp", s.addr)
	}
	if err != nil {
		return err
	}
	s.listener = ln

	s.logger.Info("🚀 Servidor GoFunko ouvindo.", map[string]interface{}{
		"addr": ln.Addr().String(),
		"tls":  s.tlsCfg != nil,
	})

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.inShutdown.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("Falha ao aceitar conexão.", err)
			continue
		}

		clientID := s.clientSeq.Add(1)
		worker := newSessionWorker(conn, clientID, s.funkos, s.users, s.limiter, s.logger)

		s.connMu.Lock()
		s.conns[conn] = struct{}{}
		s.connMu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			worker.Run()
			s.connMu.Lock()
			delete(s.conns, conn)
			s.connMu.Unlock()
		}()
	}
}

// Addr retorna o endereço em que o listener está escutando (para testes
// que sobem o servidor na porta 0).
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown para o accept loop, fecha as conexões ativas e espera os
// Workers em voo terminarem. Fechar a conexão encerra o Worker; requisições
// já em andamento completam porque o cache pós-Shutdown continua sendo um
// no-op seguro.
func (s *Server) Shutdown() {
	s.inShutdown.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}

	s.connMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
}
