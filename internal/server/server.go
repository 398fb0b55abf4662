// Package server exposes the backend's HTTP surface for the host: policy configuration
// validation.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/chenhe/lskyctl/internal/handler"
	"github.com/chenhe/lskyctl/internal/lsky"
)

// validationImage is a throwaway test image uploaded to verify a candidate configuration.
//
//go:embed validation.png
var validationImage []byte

const validationFilename = "validation.png"

// Server serves the backend API.
type Server struct {
	// Timeout bounds a single validation round trip.
	Timeout time.Duration

	srv *http.Server
}

// New returns a Server listening on addr.
func New(addr string, timeout time.Duration) *Server {
	s := &Server{Timeout: timeout}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/apis/lsky-pro.chenhe.me/v1/policies/validation", s.handleValidation)
	return r
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.ListenAndServe()
	}()
	log.Info().Msgf("Listening on %s", s.srv.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

// handleValidation verifies a candidate policy configuration by uploading a small test image
// and deleting it right away. Any classified failure is reported back as the validation result.
func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	props, err := lsky.ParseProperties(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := Validate(r.Context(), props, s.Timeout); err != nil {
		status := http.StatusBadRequest
		var inputErr *handler.InputError
		if !errors.As(err, &inputErr) {
			status = http.StatusInternalServerError
		}
		writeError(w, status, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Validate uploads the embedded test image with the given configuration and deletes it again.
func Validate(ctx context.Context, props lsky.Properties, timeout time.Duration) error {
	if timeout == 0 {
		timeout = handler.DefaultTimeout
	}
	client := lsky.NewClient(props.URL, props.Token, timeout)

	resp, err := client.Upload(ctx, bytes.NewReader(validationImage), validationFilename, lsky.UploadOptions{
		StrategyID: props.StrategyID,
		AlbumID:    props.AlbumID,
	})
	if err != nil {
		return handler.MapRemoteError(err)
	}
	log.Info().Msgf("Validate policy config: upload successful: %s", resp.Key)

	if err := client.Delete(ctx, resp.Key); err != nil {
		return handler.MapRemoteError(err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
}
