package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/fittrack/internal/fetch"
	"github.com/jonathan/fittrack/internal/session"
)

// newClient builds the API client from the merged config.
func newClient() (*fetch.Client, error) {
	return fetch.New(cfg.ServerURL, &fetch.Options{Timeout: cfg.TimeoutDuration()})
}

// sessionStore opens the session file named by the config, or the default location.
func sessionStore() (*session.FileStore, error) {
	path := cfg.SessionPath
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return session.NewFileStore(path), nil
}

// currentSession returns the stored session or session.ErrUnauthenticated.
func currentSession(ctx context.Context) (*session.FileStore, *session.Session, error) {
	store, err := sessionStore()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, s, nil
}

// describeError is the one-line message printed for a failed command.
func describeError(err error) string {
	if errors.Is(err, session.ErrUnauthenticated) {
		return "please log in (fittrack login --email you@example.com)"
	}
	var re *fetch.RemoteError
	if errors.As(err, &re) {
		return fmt.Sprintf("%s (status %d)", fetch.FinalMessage(re), re.StatusCode)
	}
	return err.Error()
}

func requireEnv(key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s environment variable is required", key)
}
