package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

const (
	DefaultPort    = "5002"
	DefaultTLSMode = TLSModeAutoCert

	TLSModeAutoCert = "autocert"
	TLSModeFile     = "file"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type Server struct {
	Port string
	Host string
	TLS  ServerTLS
}

type ServerTLS struct {
	Enabled  bool
	Mode     string
	AutoCert *ServerTLSAutoCert
	CertFile string
	KeyFile  string
}

type ServerTLSAutoCert struct {
	CacheDir string
	Domains  []string
	Email    string
}

type UnknownTLSModeError struct {
	Mode string
}

func (err UnknownTLSModeError) Error() string {
	return fmt.Sprintf("unknown tls mode: %q", err.Mode)
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// Run serves handler until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var challengeSrv *http.Server

	serve := func() error {
		slog.InfoContext(ctx, "server listening", "address", "http://"+s.Addr())

		return srv.ListenAndServe()
	}

	if s.TLS.Enabled {
		switch s.TLS.Mode {
		case TLSModeAutoCert:
			if s.TLS.AutoCert == nil || len(s.TLS.AutoCert.Domains) == 0 {
				return errors.New("autocert requires at least one domain")
			}

			m := &autocert.Manager{
				Prompt:     autocert.AcceptTOS,
				Cache:      autocert.DirCache(s.TLS.AutoCert.CacheDir),
				HostPolicy: autocert.HostWhitelist(s.TLS.AutoCert.Domains...),
				Email:      s.TLS.AutoCert.Email,
			}

			srv.TLSConfig = m.TLSConfig()

			challengeSrv = &http.Server{
				Addr:              net.JoinHostPort(s.Host, "80"),
				Handler:           m.HTTPHandler(nil),
				ReadHeaderTimeout: readHeaderTimeout,
			}

			go func() {
				err := challengeSrv.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.ErrorContext(ctx, "failed to run acme challenge server", "error", err)
				}
			}()

			serve = func() error {
				slog.InfoContext(ctx, "server listening", "address", domainsToHTTPSAddress(s.TLS.AutoCert.Domains))

				return srv.ListenAndServeTLS("", "")
			}
		case TLSModeFile:
			srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}

			serve = func() error {
				slog.InfoContext(ctx, "server listening", "address", "https://"+s.Addr())

				return srv.ListenAndServeTLS(s.TLS.CertFile, s.TLS.KeyFile)
			}
		default:
			return UnknownTLSModeError{Mode: s.TLS.Mode}
		}
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- serve()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to listen and serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if challengeSrv != nil {
		err := challengeSrv.Shutdown(shutdownCtx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to shutdown acme challenge server", "error", err)
		}
	}

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func domainsToHTTPSAddress(domains []string) string {
	addresses := make([]string, 0, len(domains))

	for _, domain := range domains {
		addresses = append(addresses, "https://"+domain)
	}

	return strings.Join(addresses, ", ")
}
