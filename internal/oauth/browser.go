package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Result types of a browser round-trip.
const (
	ResultSuccess = "success"
	ResultDismiss = "dismiss"
	ResultCancel  = "cancel"
	ResultError   = "error"
)

// AuthResult is what the system browser hands back after authorization.
type AuthResult struct {
	Type   string
	Params map[string]string
}

// Browser opens the authorization URL and waits for the redirect.
type Browser interface {
	Authorize(ctx context.Context, authURL, redirectURI string) (AuthResult, error)
}

// LoopbackBrowser serves the redirect URI on a local listener and prints the
// authorization URL for the user to open. Open, when set, is tried first.
type LoopbackBrowser struct {
	Out  io.Writer
	Open func(url string) error
}

func (b *LoopbackBrowser) Authorize(ctx context.Context, authURL, redirectURI string) (AuthResult, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return AuthResult{}, fmt.Errorf("parse redirect uri: %w", err)
	}
	if redirect.Scheme != "http" || redirect.Port() == "" {
		return AuthResult{}, fmt.Errorf("redirect uri %q must be an http loopback address with a port", redirectURI)
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return AuthResult{}, fmt.Errorf("listen %s: %w", redirect.Host, err)
	}

	results := make(chan AuthResult, 1)
	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		params := map[string]string{}
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		res := AuthResult{Type: ResultSuccess, Params: params}
		switch params["error"] {
		case "":
		case "access_denied":
			res.Type = ResultCancel
		default:
			res.Type = ResultError
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body>Sign-in complete. You can close this window.</body></html>")
		select {
		case results <- res:
		default:
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- AuthResult{Type: ResultError, Params: map[string]string{"error": err.Error()}}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if b.Out != nil {
		fmt.Fprintf(b.Out, "Open this URL to sign in:\n%s\n", authURL)
	}
	if b.Open != nil {
		if err := b.Open(authURL); err != nil && b.Out != nil {
			fmt.Fprintf(b.Out, "could not open browser: %v\n", err)
		}
	}

	select {
	case res := <-results:
		return res, nil
	case <-ctx.Done():
		return AuthResult{Type: ResultDismiss}, nil
	}
}
