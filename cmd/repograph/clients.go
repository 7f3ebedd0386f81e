// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/repograph/internal/bootstrap"
	"github.com/kraklabs/repograph/internal/config"
	"github.com/kraklabs/repograph/internal/errors"
	"github.com/kraklabs/repograph/pkg/graphstore"
	"github.com/kraklabs/repograph/pkg/llm"
)

func (a *app) openGraph(ctx context.Context, cfg *config.Config) (graphstore.Store, error) {
	store, err := bootstrap.OpenGraph(ctx, cfg, a.logger)
	if err != nil {
		return nil, errors.NewDatabaseError(
			"Cannot open graph store",
			err.Error(),
			"Check the graph section of .repograph/project.yaml or run 'repograph init'",
			err,
		)
	}
	return store, nil
}

func (a *app) provider(cfg *config.Config) (llm.Provider, error) {
	p, err := bootstrap.NewProvider(cfg)
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot create LLM provider",
			err.Error(),
			"Set llm.provider to ollama, openai or mock",
			err,
		)
	}
	return p, nil
}

func (a *app) embedder(cfg *config.Config) (llm.Embedder, error) {
	e, err := bootstrap.NewEmbedder(cfg)
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot create embedding provider",
			err.Error(),
			"Set embedding.provider and embedding.model in .repograph/project.yaml",
			err,
		)
	}
	return e, nil
}

func graphError(msg string, err error) error {
	return errors.NewDatabaseError(msg, err.Error(), "Check that the graph store is reachable", err)
}

func modelError(msg string, err error) error {
	return errors.NewNetworkError(msg, err.Error(), "Check that the model server is running and the model is available", err)
}

// serveMetrics exposes the default Prometheus registry on addr until the
// returned stop function is called.
func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
