/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cinepitch/internal/config"
	"cinepitch/internal/crash"
	"cinepitch/internal/credits"
	"cinepitch/internal/gateway"
	applog "cinepitch/internal/log"
	"cinepitch/internal/storage"
	"cinepitch/internal/studio"
	"cinepitch/internal/telemetry"
)

// closeTimeout bounds the final autosave flush when a command exits.
const closeTimeout = 5 * time.Second

type commandContext struct {
	configFlag  *string
	profileFlag *string

	configOnce sync.Once
	cfg        config.AppConfig
	secrets    config.Secrets
	configErr  error
}

func newCommandContext(configFlag, profileFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, profileFlag: profileFlag}
}

// ensureConfig loads the configuration once and initialises logging from it.
func (c *commandContext) ensureConfig() (config.AppConfig, config.Secrets, error) {
	c.configOnce.Do(func() {
		var (
			cfg     config.AppConfig
			secrets config.Secrets
			err     error
		)
		if p := strings.TrimSpace(deref(c.configFlag)); p != "" {
			cfg, secrets, err = config.LoadFrom(p)
		} else {
			cfg, secrets, err = config.Load()
		}
		if err != nil {
			c.configErr = err
			return
		}
		if p := strings.TrimSpace(deref(c.profileFlag)); p != "" {
			cfg.General.ProfileDir = p
		}
		applog.Init(cfg.Logging.LogOptions())
		c.cfg, c.secrets = cfg, secrets
	})
	return c.cfg, c.secrets, c.configErr
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// session is one opened studio with the resources it owns.
type session struct {
	studio *studio.Studio
	store  *storage.Store
	tel    *telemetry.Client
	ledger *credits.Postgres
	guard  crash.Guard
	userID string
}

func (c *commandContext) openSession(ctx context.Context) (*session, error) {
	cfg, secrets, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	l := applog.WithOperation(applog.WithComponent("cli"), "open")

	store, err := storage.Open(ctx, cfg.General.ProfileDir, storage.Options{})
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	ss := &session{store: store, tel: newTelemetry(cfg), userID: cfg.Credits.UserID}
	ss.guard = crash.Guard{ReportDir: cfg.General.ProfileDir, Telemetry: ss.tel}

	opts := studio.Options{
		Store:       store,
		AutosaveKey: cfg.Autosave.Key,
		Debounce:    cfg.Autosave.Debounce(),
		Gateway:     newGateway(cfg.Gateway),
		Credentials: gateway.Credentials{APIKey: secrets.APIKey},
		Telemetry:   ss.tel,
		UserID:      cfg.Credits.UserID,
	}
	if cfg.Credits.Enabled {
		ledger, err := openLedger(ctx, cfg.Credits, secrets)
		if err != nil {
			ss.closeResources()
			return nil, err
		}
		ss.ledger = ledger
		opts.Ledger = ledger
	}
	st, err := studio.Open(ctx, opts)
	if err != nil {
		ss.closeResources()
		return nil, err
	}
	ss.studio = st
	ss.guard.Autosave = st.Autosave()
	l.Debug("session ready", slog.String("profile", cfg.General.ProfileDir), slog.Bool("credits", ss.ledger != nil))
	return ss, nil
}

// withSession runs fn on an open session. Panics inside fn produce a crash report and a final
// autosave before the process exits.
func (c *commandContext) withSession(ctx context.Context, fn func(context.Context, *session) error) error {
	ss, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer ss.close()
	defer ss.guard.Recover()
	return fn(ctx, ss)
}

// resumeOrFail restores the autosaved project for commands that need one.
func (ss *session) resumeOrFail(ctx context.Context) error {
	if err := ss.studio.Resume(ctx); err != nil {
		if errors.Is(err, studio.ErrNoSavedProject) {
			return errors.New("no saved project; create one with `cinepitch new` or import a file")
		}
		return err
	}
	return nil
}

func (ss *session) close() {
	if ss.studio != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if err := ss.studio.Close(ctx); err != nil {
			applog.WithComponent("cli").Warn("final autosave failed", slog.Any("err", err))
		}
		cancel()
		ss.studio.Notifications().Close()
	}
	ss.closeResources()
}

func (ss *session) closeResources() {
	if ss.ledger != nil {
		_ = ss.ledger.Close()
	}
	if ss.store != nil {
		_ = ss.store.Close()
	}
	ss.tel.Close()
}

func newTelemetry(cfg config.AppConfig) *telemetry.Client {
	base := strings.TrimRight(cfg.General.TelemetryURL, "/")
	if !cfg.General.TelemetryOptIn || base == "" {
		return nil
	}
	return telemetry.New(telemetry.Config{
		OptIn:     true,
		EventsURL: base + "/events",
		CrashURL:  base + "/crash",
	})
}

func newGateway(g config.GatewayConfig) *gateway.HTTP {
	opts := gateway.Options{BaseURL: g.BaseURL, TextModel: g.TextModel, Timeout: g.Timeout()}
	if m := strings.TrimSpace(g.ImageModel); m != "" {
		opts.ImageModels = []string{m, "gemini-3-pro-image-preview"}
	}
	return gateway.NewHTTP(opts)
}

func openLedger(ctx context.Context, cc config.CreditsConfig, secrets config.Secrets) (*credits.Postgres, error) {
	if secrets.CreditsDSN == "" {
		return nil, fmt.Errorf("credits are enabled but no database is configured (set %s)", config.EnvPGDSN)
	}
	if cc.UserID == "" {
		return nil, fmt.Errorf("credits are enabled but no user is configured (set %s)", config.EnvCreditsUser)
	}
	ledger, err := credits.OpenPostgres(ctx, secrets.CreditsDSN)
	if err != nil {
		return nil, err
	}
	if err := ledger.EnsureProfile(ctx, cc.UserID, "", 0); err != nil {
		_ = ledger.Close()
		return nil, err
	}
	return ledger, nil
}
