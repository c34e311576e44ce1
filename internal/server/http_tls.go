package server

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"placement/internal/errors"
)

// TLS modes.
const (
	TLSModeDisabled = "disabled"
	TLSModeServer   = "server"
)

// configureTLS attaches a TLS config to the server when TLS is enabled
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "", TLSModeDisabled:
		return nil
	case TLSModeServer:
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported TLS mode %q (use disabled or server)", s.TLSConfig.Mode), nil)
	}

	tlsConfig, err := s.buildTLSConfig()
	if err != nil {
		return err
	}
	httpServer.TLSConfig = tlsConfig

	s.Logger.Info("TLS enabled",
		"cert_file", s.TLSConfig.CertFile,
		"min_version", s.TLSConfig.MinVersion)
	return nil
}

// buildTLSConfig loads the server key pair and applies the minimum version
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	if s.TLSConfig.CertFile == "" || s.TLSConfig.KeyFile == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"TLS server mode requires certFile and keyFile", nil)
	}

	cert, err := tls.LoadX509KeyPair(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"failed to load server certificate", err).
			WithContext("cert_file", s.TLSConfig.CertFile)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
	}
	s.configureTLSVersion(tlsConfig)
	return tlsConfig, nil
}

func (s *Server) configureTLSVersion(tlsConfig *tls.Config) {
	switch s.TLSConfig.MinVersion {
	case "1.3":
		tlsConfig.MinVersion = tls.VersionTLS13
	default:
		tlsConfig.MinVersion = tls.VersionTLS12
	}
}
