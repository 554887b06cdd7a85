package server

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"gofunko/config"
)

var (
	ErrTLSCertFileRequired = errors.New("server: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("server: tls key file required")
)

// BuildTLSConfig monta a configuração TLS do listener a partir do Config.
// O canal fica por conta do primitivo de socket seguro da plataforma
// (crypto/tls): confidencialidade, integridade e autenticação do servidor.
// A verificação de certificado do cliente é opcional, ativada quando
// TLSCAFile está definido.
func BuildTLSConfig(cfg *config.Config) (*tls.Config, error) {
	if cfg.TLSCertFile == "" {
		return nil, ErrTLSCertFileRequired
	}
	if cfg.TLSKeyFile == "" {
		return nil, ErrTLSKeyFileRequired
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return nil, fmt.Errorf("server: falha ao carregar o par de chaves TLS: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}

	if cfg.TLSCAFile != "" {
		caPEM, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("server: falha ao ler a CA de clientes: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, errors.New("server: CA de clientes inválida")
		}
		tlsCfg.ClientCAs = pool
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return tlsCfg, nil
}
