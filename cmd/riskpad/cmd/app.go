package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/riskpad/riskpad/apiclient"
	"github.com/riskpad/riskpad/config"
	"github.com/riskpad/riskpad/cookies"
	"github.com/riskpad/riskpad/crypto"
	"github.com/riskpad/riskpad/session"
	bboltstorage "github.com/riskpad/riskpad/storage/bbolt"
)

// app is the composition root: one instance of every session collaborator,
// wired together for the lifetime of a command.
type app struct {
	cfg     *config.Config
	client  *apiclient.Client
	manager *session.Manager
	logger  *slog.Logger

	repo *bboltstorage.Store
}

// newApp builds the collaborator graph from the environment. The cookie
// jar is persistent, so a session survives across command invocations.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cipher, err := crypto.NewPayloadCipher(cfg.CookieKey, crypto.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("initializing payload cipher: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.CookieDB), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	repo, err := bboltstorage.NewRepositoryFromFile(cfg.CookieDB, nil)
	if err != nil {
		return nil, fmt.Errorf("opening cookie jar storage: %w", err)
	}

	jar := cookies.NewPersistentJar(repo)
	tokens := cookies.NewTokenStore(jar, cipher)

	client := apiclient.New(cfg.APIURL, tokens,
		apiclient.WithLogger(logger),
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithCookieJar(cookies.NewClientJar(jar)))

	manager := session.NewManager(session.NewStore(), client, tokens,
		session.WithLogger(logger))
	client.OnUnauthorized(manager.HandleUnauthorized)

	return &app{
		cfg:     cfg,
		client:  client,
		manager: manager,
		logger:  logger,
		repo:    repo,
	}, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}
