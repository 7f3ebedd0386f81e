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

package query

import (
	"io"

	"github.com/kraklabs/repograph/internal/output"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/graphstore"
)

// RenderTable writes res as aligned columns.
func RenderTable(w io.Writer, res *graphstore.QueryResult) error {
	return ui.Table(w, res.Headers, res.Strings())
}

// RenderJSON writes res as an array of objects keyed by column name.
func RenderJSON(w io.Writer, res *graphstore.QueryResult) error {
	rows := res.Maps()
	if rows == nil {
		rows = []map[string]any{}
	}
	return output.JSONTo(w, rows)
}
