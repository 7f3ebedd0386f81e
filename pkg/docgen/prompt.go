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

	"github.com/tmc/langchaingo/prompts"
)

const entityTemplate = `You are an experienced software engineer and technical writer. Using the information below, write a detailed explanation of the given code.

1. Project purpose: {{.project_brief}}

2. File path: {{.code_path}}

3. Entity type: {{.code_type}}

4. Entity code:
{{.code}}

5. Other entities in the same file and their summaries:
{{.related_code}}

Provide:

a) Overview: the main purpose of this code in a few sentences.

b) Behaviour: what the code does in detail, its role in the project, the main logic flow, inputs and outputs.

c) Parameters: for a function, each parameter; for a class, its main attributes.

d) Return value: what the function or method returns, if applicable.

e) Caveats: pitfalls, limitations and things to watch when using it.

f) Relationships: how this code relates to the other entities in the file and to the project as a whole.

Be clear and accurate. Where something is ambiguous, say so and state a reasonable assumption.`

// entityPrompt renders the documentation prompt for one entity.
type entityPrompt struct {
	tmpl prompts.PromptTemplate
}

func newEntityPrompt() entityPrompt {
	return entityPrompt{tmpl: prompts.NewPromptTemplate(entityTemplate,
		[]string{"project_brief", "code_path", "code_type", "code", "related_code"})}
}

func (p entityPrompt) render(brief, path string, e Entity, related string) (string, error) {
	if related == "" {
		related = "(none yet)"
	}
	text, err := p.tmpl.Format(map[string]any{
		"project_brief": brief,
		"code_path":     path,
		"code_type":     e.Kind,
		"code":          e.Code,
		"related_code":  related,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt for %s: %w", e.Name, err)
	}
	return text, nil
}
