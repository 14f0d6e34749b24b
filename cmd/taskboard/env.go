package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/remote"
	"github.com/nhle/taskboard/internal/session"
)

// errNotLoggedIn is returned by commands that need a stored session.
var errNotLoggedIn = errors.New("not logged in, run `taskboard login -u USER`")

// env is what most commands need: the loaded configuration, a clock in the
// reminder timezone, and a logger.
type env struct {
	cfg   *model.AppConfig
	clock clock.Clock
	log   lgr.L
	debug bool
}

// loadEnv reads the configuration. Logging goes to stderr with --debug
// and is discarded otherwise.
func loadEnv(opts *options) (*env, error) {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	e := &env{
		cfg:   cfg,
		clock: clock.Real{Loc: loc},
		log:   lgr.NoOp,
		debug: opts.debug,
	}
	if opts.debug {
		e.logTo(os.Stderr)
	}
	return e, nil
}

// logTo redirects the logger to w.
func (e *env) logTo(w io.Writer) {
	e.log = newLogger(e.cfg.Log.Level, e.debug, w)
}

// newLogger returns an lgr logger sending every level, errors included,
// to w.
func newLogger(level string, debug bool, w io.Writer) lgr.L {
	logOpts := []lgr.Option{lgr.Out(w), lgr.Err(w), lgr.Msec}
	if debug || strings.EqualFold(level, "debug") {
		logOpts = append(logOpts, lgr.Debug)
	}
	return lgr.New(logOpts...)
}

// openLogFile opens path for appending, creating its directory.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}

// newClient returns a backend client without a token.
func (e *env) newClient() *remote.Client {
	return remote.NewClient(e.cfg.Server.BaseURL, e.cfg.Timeout())
}

// loadSession rebuilds the session from the token in the keyring.
func (e *env) loadSession() (session.Session, error) {
	token, err := credential.LoadToken()
	if errors.Is(err, credential.ErrNotFound) {
		return session.Session{}, errNotLoggedIn
	}
	if err != nil {
		return session.Session{}, err
	}

	sess, err := session.FromToken(token, e.clock.Now())
	if err != nil {
		e.log.Logf("[DEBUG] stored token rejected: %v", err)
		return session.Session{}, fmt.Errorf("%w (%v)", errNotLoggedIn, err)
	}
	return sess, nil
}

// departmentNames lists the backend's departments, falling back to the
// user's own department when the call fails.
func (e *env) departmentNames(ctx context.Context, client *remote.Client, user model.User) []string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	depts, err := client.ListDepartments(ctx)
	if err != nil || len(depts) == 0 {
		if err != nil {
			e.log.Logf("[WARN] listing departments: %v", err)
		}
		if user.Department == "" {
			return nil
		}
		return []string{user.Department}
	}

	names := make([]string, len(depts))
	for i, d := range depts {
		names[i] = d.Name
	}
	return names
}
