/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes the editing session over a local HTTP API and streams notifications
// over a WebSocket.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cinepitch/internal/credits"
	"cinepitch/internal/gateway"
	applog "cinepitch/internal/log"
	"cinepitch/internal/project"
	"cinepitch/internal/projectio"
	"cinepitch/internal/storage"
	"cinepitch/internal/studio"
)

// maxBodySize bounds request bodies; imported projects carry inline media.
const maxBodySize = 256 << 20

type Server struct {
	st     *studio.Studio
	engine *gin.Engine
	log    *slog.Logger
}

func New(st *studio.Studio) *Server {
	s := &Server{st: st, log: applog.WithComponent("server")}
	e := gin.New()
	e.Use(gin.Recovery(), s.requestLog())
	s.routes(e)
	s.engine = e
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)))
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, project.ErrNotFound), errors.Is(err, studio.ErrNoSavedProject), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, project.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, projectio.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, project.ErrInvalid), errors.Is(err, project.ErrOutOfRange), errors.Is(err, studio.ErrCorruptSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gateway.ErrMissingAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, credits.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, gateway.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, projectio.ErrEmptyBudget):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	resp := gin.H{"error": err.Error()}
	var fe *projectio.FormatError
	if errors.As(err, &fe) {
		resp["problems"] = fe.Problems
	}
	c.AbortWithStatusJSON(statusFor(err), resp)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
