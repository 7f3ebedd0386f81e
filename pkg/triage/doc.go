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

// Package triage asks a language model to skim a repository.
//
// A Triager reads every code file and records whether the file carries
// business logic, what it does and which functions or classes matter. The
// answers are written as JSONL so a reader can decide where to start.
//
// An Overview works on the graph instead of the file system: it lists the
// files held by a project's root directory, asks for a one-sentence note on
// each (build, dependencies, purpose), and can persist the notes in the
// description store with a back-reference on the graph node.
package triage
