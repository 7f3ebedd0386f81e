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

package gitinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/prompts"

	"github.com/kraklabs/repograph/pkg/llm"
)

// ErrAmbiguousAnswer is returned when the model answers neither yes nor no.
var ErrAmbiguousAnswer = errors.New("answer is neither yes nor no")

const mergeTemplate = `Below is a git commit message from a repository. Decide whether it is a merge request or another commit created automatically by a system. Answer only yes or no, with nothing else.
Commit message:
{{.commit_message}}`

// MergeClassifier asks a model whether a commit was generated by a system
// rather than written by a person.
type MergeClassifier struct {
	provider llm.Provider
	model    string
	tmpl     prompts.PromptTemplate
	logger   *slog.Logger
}

// NewMergeClassifier returns a classifier using provider with model (empty
// selects the provider default).
func NewMergeClassifier(provider llm.Provider, model string, logger *slog.Logger) *MergeClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeClassifier{
		provider: provider,
		model:    model,
		tmpl:     prompts.NewPromptTemplate(mergeTemplate, []string{"commit_message"}),
		logger:   logger,
	}
}

// Classify reports whether message looks system-generated.
func (m *MergeClassifier) Classify(ctx context.Context, message string) (bool, error) {
	prompt, err := m.tmpl.Format(map[string]any{"commit_message": message})
	if err != nil {
		return false, fmt.Errorf("render prompt: %w", err)
	}
	answer, err := llm.GenerateText(ctx, m.provider, llm.GenerateRequest{Prompt: prompt, Model: m.model})
	if err != nil {
		return false, err
	}
	return parseYesNo(answer)
}

// ClassifyCommit short-circuits commits with several parents and asks the
// model about the rest.
func (m *MergeClassifier) ClassifyCommit(ctx context.Context, c Commit) (bool, error) {
	if IsMergeCommit(c) {
		return true, nil
	}
	generated, err := m.Classify(ctx, c.Message)
	if err != nil {
		m.logger.Warn("commits.classify.error", "hash", c.Hash, "err", err)
		return false, err
	}
	return generated, nil
}

// parseYesNo reads the first word of answer, ignoring case and
// punctuation. Only a whole "yes" or "no" counts.
func parseYesNo(answer string) (bool, error) {
	words := strings.FieldsFunc(strings.ToLower(answer), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) > 0 {
		switch words[0] {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %q", ErrAmbiguousAnswer, answer)
}
