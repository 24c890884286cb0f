package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wagnerlima/promptmux/internal/config"
	"github.com/wagnerlima/promptmux/internal/llm"
	"github.com/wagnerlima/promptmux/internal/server"
	"github.com/wagnerlima/promptmux/internal/session"
	"github.com/wagnerlima/promptmux/internal/storage"
)

// app wires the store, the session and the model client for one command.
type app struct {
	store      *storage.DocumentStore
	session    *session.Session
	settings   *config.Watcher
	normalizer *llm.Normalizer
	log        *zap.Logger
}

func openApp(dir, settings string, log *zap.Logger) (*app, error) {
	store, err := storage.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	legacy, err := storage.ImportLegacy(dir)
	if err != nil {
		log.Warn("Ignoring unreadable legacy project", zap.Error(err))
		legacy = nil
	}

	sess, err := session.Open(store,
		session.WithLogger(log.Named("session")),
		session.WithLegacyProject(legacy),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	watcher, err := config.NewWatcher(settings, log.Named("settings"))
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		store:      store,
		session:    sess,
		settings:   watcher,
		normalizer: llm.New(watcher, llm.WithLogger(log.Named("llm"))),
		log:        log,
	}, nil
}

func (a *app) deps() server.Deps {
	return server.Deps{
		Session:    a.session,
		Store:      a.store,
		Normalizer: a.normalizer,
		Settings:   a.settings,
		Log:        a.log,
	}
}

func (a *app) Close() error {
	return errors.Join(a.settings.Close(), a.store.Close())
}
