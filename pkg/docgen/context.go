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

package docgen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxRelatedBytes bounds the running context passed to each prompt.
const DefaultMaxRelatedBytes = 6000

// RelatedContext is the running summary of entities already documented in
// the current file. Entries are kept whole and in order; when the total
// exceeds the bound the oldest entries are dropped first, and a single
// entry larger than the bound is cut to fit.
type RelatedContext struct {
	max     int
	entries []string
	size    int
}

// NewRelatedContext returns an empty context bounded to maxBytes; values
// <= 0 select DefaultMaxRelatedBytes.
func NewRelatedContext(maxBytes int) *RelatedContext {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRelatedBytes
	}
	return &RelatedContext{max: maxBytes}
}

// Add appends "<Kind> <name>: <doc>\n\n".
func (c *RelatedContext) Add(kind, name, doc string) {
	entry := fmt.Sprintf("%s %s: %s\n\n", capitalize(kind), name, strings.TrimSpace(doc))
	if len(entry) > c.max {
		entry = truncateUTF8(entry, c.max)
	}
	c.entries = append(c.entries, entry)
	c.size += len(entry)
	for c.size > c.max && len(c.entries) > 0 {
		c.size -= len(c.entries[0])
		c.entries = c.entries[1:]
	}
}

// String returns the entries joined in insertion order.
func (c *RelatedContext) String() string {
	return strings.Join(c.entries, "")
}

// Len returns the context size in bytes.
func (c *RelatedContext) Len() int { return c.size }

// Entries returns the number of entries held.
func (c *RelatedContext) Entries() int { return len(c.entries) }

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[n:]
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
