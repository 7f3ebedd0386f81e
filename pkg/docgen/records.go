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
	"io"

	"github.com/kraklabs/repograph/internal/output"
)

// Record is one generated documentation entry, one JSON object per line.
type Record struct {
	FilePath      string `json:"file_path"`
	EntityName    string `json:"entity_name"`
	EntityType    string `json:"entity_type"`
	Documentation string `json:"documentation"`
	Code          string `json:"code,omitempty"`
	StartLine     int    `json:"start_line,omitempty"`
	EndLine       int    `json:"end_line,omitempty"`
}

// WriteRecords writes recs as JSON lines.
func WriteRecords(w io.Writer, recs []Record) error {
	jw := output.NewJSONLWriter(w)
	for _, r := range recs {
		if err := jw.Write(r); err != nil {
			return fmt.Errorf("write record %s/%s: %w", r.FilePath, r.EntityName, err)
		}
	}
	return jw.Flush()
}

// ReadRecords reads a JSONL file written by WriteRecords or
// DocumentRepository.
func ReadRecords(r io.Reader) ([]Record, error) {
	return output.ReadJSONL[Record](r)
}
