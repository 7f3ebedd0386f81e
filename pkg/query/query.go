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

// Package query composes read queries over the repository graph.
//
// A Spec has three parts: a structural pattern (what to match), a
// condition with bound parameters (which matches to keep) and a projection
// (what to return, as "expr AS alias"). Compose renders the Spec in the
// dialect of the target store: Cypher for Neo4j, SQL for the embedded
// SQLite graph. Values always travel as parameters; the only identifiers
// in query text are the fixed labels and relationship types.
package query

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kraklabs/repograph/pkg/graphstore"
)

var (
	// ErrInvalidProjection is returned for an empty projection or an alias
	// that is not a plain identifier.
	ErrInvalidProjection = errors.New("invalid projection")

	// ErrUnsupportedDialect is returned for a dialect with no rendering.
	ErrUnsupportedDialect = errors.New("unsupported query dialect")

	// ErrRejected is returned by Raw for text that is not a single read.
	ErrRejected = errors.New("query rejected")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// limitParam is the parameter name used for Spec.Limit.
const limitParam = "result_limit"

// Runner is the part of graphstore.Store the query layer needs.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*graphstore.QueryResult, error)
	Dialect() graphstore.Dialect
}

// Clause holds dialect-specific text for one part of a query.
type Clause struct {
	Cypher string
	SQL    string
}

// Same returns a Clause whose text is valid in both dialects.
func Same(text string) Clause { return Clause{Cypher: text, SQL: text} }

func (c Clause) text(d graphstore.Dialect) string {
	if d == graphstore.DialectCypher {
		return c.Cypher
	}
	return c.SQL
}

// Pattern is the structural part of a query. In SQL the pattern is a FROM
// list plus the filter that pins node labels and edge types.
type Pattern struct {
	Cypher    string
	SQLFrom   string
	SQLFilter string
}

// Projection is one returned column.
type Projection struct {
	Expr  string
	Alias string
}

// Spec is a complete read query.
type Spec struct {
	Match   Pattern
	Where   []Clause
	Params  map[string]any
	Return  []Projection
	OrderBy []string // projection aliases
	Limit   int      // 0 means no limit
}

// And returns a copy of s with cond added to the conditions and params
// merged in.
func (s Spec) And(cond Clause, params map[string]any) Spec {
	out := s
	out.Where = append(append([]Clause(nil), s.Where...), cond)
	out.Params = make(map[string]any, len(s.Params)+len(params))
	for k, v := range s.Params {
		out.Params[k] = v
	}
	for k, v := range params {
		out.Params[k] = v
	}
	return out
}

// Headers returns the projection aliases in order.
func (s Spec) Headers() []string {
	h := make([]string, len(s.Return))
	for i, p := range s.Return {
		h[i] = p.Alias
	}
	return h
}

func (s Spec) validate() error {
	if len(s.Return) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidProjection)
	}
	aliases := make(map[string]bool, len(s.Return))
	for _, p := range s.Return {
		if !identifier.MatchString(p.Alias) {
			return fmt.Errorf("%w: alias %q", ErrInvalidProjection, p.Alias)
		}
		if strings.TrimSpace(p.Expr) == "" {
			return fmt.Errorf("%w: empty expression for %q", ErrInvalidProjection, p.Alias)
		}
		aliases[p.Alias] = true
	}
	for _, o := range s.OrderBy {
		if !aliases[o] {
			return fmt.Errorf("%w: order by unknown alias %q", ErrInvalidProjection, o)
		}
	}
	if s.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidProjection)
	}
	return nil
}

// Compose renders spec for dialect d and returns the query text and the
// parameters to bind with it.
func Compose(d graphstore.Dialect, spec Spec) (string, map[string]any, error) {
	if err := spec.validate(); err != nil {
		return "", nil, err
	}

	cols := make([]string, len(spec.Return))
	for i, p := range spec.Return {
		cols[i] = p.Expr + " AS " + p.Alias
	}

	var conds []string
	if d == graphstore.DialectSQL && spec.Match.SQLFilter != "" {
		conds = append(conds, spec.Match.SQLFilter)
	}
	for _, c := range spec.Where {
		if t := strings.TrimSpace(c.text(d)); t != "" {
			conds = append(conds, "("+t+")")
		}
	}

	var b strings.Builder
	switch d {
	case graphstore.DialectCypher:
		b.WriteString("MATCH ")
		b.WriteString(spec.Match.Cypher)
		if len(conds) > 0 {
			b.WriteString(" WHERE ")
			b.WriteString(strings.Join(conds, " AND "))
		}
		b.WriteString(" RETURN ")
		b.WriteString(strings.Join(cols, ", "))
	case graphstore.DialectSQL:
		b.WriteString("SELECT ")
		b.WriteString(strings.Join(cols, ", "))
		b.WriteString(" FROM ")
		b.WriteString(spec.Match.SQLFrom)
		if len(conds) > 0 {
			b.WriteString(" WHERE ")
			b.WriteString(strings.Join(conds, " AND "))
		}
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, d)
	}

	if len(spec.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(spec.OrderBy, ", "))
	}

	params := make(map[string]any, len(spec.Params)+1)
	for k, v := range spec.Params {
		params[k] = v
	}
	if spec.Limit > 0 {
		b.WriteString(" LIMIT $" + limitParam)
		params[limitParam] = int64(spec.Limit)
	}
	return b.String(), params, nil
}

// Execute composes spec for the runner's dialect, runs it and labels the
// result columns with the projection aliases.
func Execute(ctx context.Context, r Runner, spec Spec) (*graphstore.QueryResult, error) {
	text, params, err := Compose(r.Dialect(), spec)
	if err != nil {
		return nil, err
	}
	res, err := r.Run(ctx, text, params)
	if err != nil {
		return nil, err
	}
	res.Headers = spec.Headers()
	return res, nil
}
