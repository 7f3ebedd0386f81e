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

package triage

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/textsplitter"
)

const assessTemplate = `I want to read a code repository. Below are the repository's documentation and the path and content of one code file. Decide whether the file is important and describe it.

{{.format_instructions}}

## Repository documentation
{{.relative_docs}}

## Code
Path: {{.code_file_path}}
Content:
{{.code_file_content}}`

const assessFormat = `Answer with a single JSON object and nothing else, using exactly these keys:
{"isImportant": boolean, "functions": string, "keyObjects": [string]}
- isImportant: whether the file holds distinctive business logic. Boilerplate such as __init__.py is not important.
- functions: what the file does as a whole.
- keyObjects: names of functions or classes that likely hold business logic.`

const rootFileTemplate = `## Background
I want to learn a code repository in depth so I can develop on it quickly or use its artifacts in a real project.

## Goal
I start by reading the files in the repository root to learn what the repository is for, its dependencies, and how to build and run it. I will send you the name and content of one of those files. Say briefly whether the file holds information of that kind.
If the file holds nothing worth attention, answer exactly None.
Answer in one sentence. Do not repeat the file content and do not add unrelated explanation.

## Data
Root directory files: {{.root_file_list}}
Target file name: {{.target_file_name}}
Target file content:
{{.target_file_content}}`

func renderAssess(tmpl prompts.PromptTemplate, docs, path, content string) (string, error) {
	text, err := tmpl.Format(map[string]any{
		"format_instructions": assessFormat,
		"relative_docs":       docs,
		"code_file_path":      path,
		"code_file_content":   content,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt for %s: %w", path, err)
	}
	return text, nil
}

func renderRootFile(tmpl prompts.PromptTemplate, names []string, name, content string) (string, error) {
	text, err := tmpl.Format(map[string]any{
		"root_file_list":      strings.Join(names, ", "),
		"target_file_name":    name,
		"target_file_content": content,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt for %s: %w", name, err)
	}
	return text, nil
}

const truncatedMarker = "\n... (truncated)"

// truncate keeps the first chunk of content when it is longer than
// maxChars runes, cutting on code-friendly separators where possible.
func truncate(content string, maxChars int) string {
	if maxChars <= 0 || len([]rune(content)) <= maxChars {
		return content
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(maxChars),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators([]string{"\nclass ", "\ndef ", "\nfunc ", "\n\n", "\n", " ", ""}),
	)
	chunks, err := splitter.SplitText(content)
	if err != nil || len(chunks) == 0 {
		return string([]rune(content)[:maxChars]) + truncatedMarker
	}
	first := chunks[0]
	if r := []rune(first); len(r) > maxChars {
		first = string(r[:maxChars])
	}
	return first + truncatedMarker
}
