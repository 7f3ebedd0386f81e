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

package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// limitedProvider spaces calls to the wrapped provider with a token
// bucket. Failed calls are not retried.
type limitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewLimitedProvider wraps p so that at most rps calls per second reach it,
// with bursts of one. rps <= 0 returns p unchanged apart from metrics.
func NewLimitedProvider(p Provider, rps float64) Provider {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &limitedProvider{inner: p, limiter: rate.NewLimiter(limit, 1)}
}

func (l *limitedProvider) Name() string { return l.inner.Name() }

func (l *limitedProvider) Models(ctx context.Context) ([]string, error) {
	return l.inner.Models(ctx)
}

func (l *limitedProvider) wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limit wait: %w", l.inner.Name(), err)
	}
	recordWait(time.Since(start))
	return nil
}

func (l *limitedProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	recordCall(l.inner.Name(), "generate", time.Since(start), err)
	if resp != nil {
		recordTokens(l.inner.Name(), resp.PromptTokens, resp.OutputTokens)
	}
	return resp, err
}

func (l *limitedProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := l.inner.Chat(ctx, req)
	recordCall(l.inner.Name(), "chat", time.Since(start), err)
	if resp != nil {
		recordTokens(l.inner.Name(), resp.PromptTokens, resp.OutputTokens)
	}
	return resp, err
}

// limitedEmbedder applies the same spacing to an Embedder.
type limitedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

// NewLimitedEmbedder wraps e like NewLimitedProvider; one Embed call is
// one token regardless of batch size.
func NewLimitedEmbedder(e Embedder, rps float64) Embedder {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &limitedEmbedder{inner: e, limiter: rate.NewLimiter(limit, 1)}
}

func (l *limitedEmbedder) Name() string { return l.inner.Name() }

func (l *limitedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit wait: %w", l.inner.Name(), err)
	}
	recordWait(time.Since(start))

	start = time.Now()
	out, err := l.inner.Embed(ctx, texts)
	recordCall(l.inner.Name(), "embed", time.Since(start), err)
	return out, err
}
