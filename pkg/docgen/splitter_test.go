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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entitySummary struct {
	Name string
	Kind string
}

func summarize(es []Entity) []entitySummary {
	out := make([]entitySummary, len(es))
	for i, e := range es {
		out[i] = entitySummary{e.Name, e.Kind}
	}
	return out
}

func TestSplit_Python(t *testing.T) {
	src := `import os

CONSTANT = 1

def load(path):
    return open(path).read()

async def fetch(url):
    return url

@dataclass
class Config:
    name: str

    def method(self):
        def inner():
            pass
        return inner

def _helper():
    pass
`
	es, err := NewSplitter(nil).Split("mod.py", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []entitySummary{
		{"load", KindFunction},
		{"fetch", KindFunction},
		{"Config", KindClass},
		{"_helper", KindFunction},
	}, summarize(es))

	assert.Equal(t, 5, es[0].StartLine)
	assert.Equal(t, 6, es[0].EndLine)
	assert.Contains(t, es[2].Code, "@dataclass", "decorators belong to the entity")
	assert.Contains(t, es[2].Code, "def method", "methods stay inside their class")
}

func TestSplit_Go(t *testing.T) {
	src := `package demo

type Store struct{ n int }

type (
	ID   string
	Name = string
)

func New() *Store { return &Store{} }

func (s *Store) Add(x int) { s.n += x }

func (l List[T]) Len() int { return 0 }
`
	es, err := NewSplitter(nil).Split("demo.go", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []entitySummary{
		{"Store", KindClass},
		{"ID", KindClass},
		{"Name", KindClass},
		{"New", KindFunction},
		{"Store.Add", KindFunction},
		{"List.Len", KindFunction},
	}, summarize(es))
	assert.Equal(t, "type Store struct{ n int }", es[0].Code)
	assert.Equal(t, "ID   string", es[1].Code)
}

func TestSplit_JavaScript(t *testing.T) {
	src := `const x = 1;
function plain(a) { return a; }
export function exported() {}
export class Widget {}
class Internal { run() {} }
function* gen() { yield 1; }
`
	es, err := NewSplitter(nil).Split("app.js", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []entitySummary{
		{"plain", KindFunction},
		{"exported", KindFunction},
		{"Widget", KindClass},
		{"Internal", KindClass},
		{"gen", KindFunction},
	}, summarize(es))
	assert.Contains(t, es[1].Code, "export function")
}

func TestSplit_TypeScript(t *testing.T) {
	src := `interface Shape { area(): number }
export class Circle implements Shape {
  constructor(private r: number) {}
  area(): number { return 3.14 * this.r * this.r; }
}
export function make(r: number): Circle { return new Circle(r); }
abstract class Base {}
`
	es, err := NewSplitter(nil).Split("shapes.ts", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []entitySummary{
		{"Circle", KindClass},
		{"make", KindFunction},
		{"Base", KindClass},
	}, summarize(es))
}

func TestSplit_Java(t *testing.T) {
	src := `package demo;

import java.util.List;

public class Service {
    void run() {}
}

interface Handler { void handle(); }

enum Mode { ON, OFF }
`
	es, err := NewSplitter(nil).Split("Service.java", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []entitySummary{
		{"Service", KindClass},
		{"Handler", KindClass},
		{"Mode", KindClass},
	}, summarize(es))
}

func TestSplit_SyntaxErrorKeepsGoing(t *testing.T) {
	src := `def good():
    return 1

def broken(:
    pass

class After:
    pass
`
	es, err := NewSplitter(nil).Split("bad.py", []byte(src))
	require.NoError(t, err)

	require.NotEmpty(t, es)
	assert.Equal(t, "good", es[0].Name)
}

func TestSplit_Unsupported(t *testing.T) {
	s := NewSplitter(nil)
	_, err := s.Split("notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	assert.False(t, s.Supported("main.rs"))
	assert.True(t, s.Supported("Main.JAVA"))
}
