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

// Package ui holds terminal output helpers for the repograph CLI.
//
// Colors follow a fixed convention: red for failures, yellow for warnings,
// green for success, cyan for counts and informational lines, bold for
// headers and dim for paths. All helpers honor --no-color and NO_COLOR.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// Out is where the message helpers write. Tests swap it for a buffer.
var Out io.Writer = os.Stdout

// InitColors applies the --no-color flag. It must run before any output.
func InitColors(noColor bool) {
	color.NoColor = noColor || os.Getenv("NO_COLOR") != ""
}

func printLine(c *color.Color, prefix, msg string) {
	_, _ = c.Fprintln(Out, prefix+msg)
}

// Success prints "✓ msg" in green.
func Success(msg string) { printLine(Green, "✓ ", msg) }

// Successf is the formatted form of Success.
func Successf(format string, args ...any) { Success(fmt.Sprintf(format, args...)) }

// Warning prints "⚠ msg" in yellow.
func Warning(msg string) { printLine(Yellow, "⚠ ", msg) }

// Warningf is the formatted form of Warning.
func Warningf(format string, args ...any) { Warning(fmt.Sprintf(format, args...)) }

// Error prints "✗ msg" in red.
func Error(msg string) { printLine(Red, "✗ ", msg) }

// Errorf is the formatted form of Error.
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }

// Info prints "ℹ msg" in cyan.
func Info(msg string) { printLine(Cyan, "ℹ ", msg) }

// Infof is the formatted form of Info.
func Infof(format string, args ...any) { Info(fmt.Sprintf(format, args...)) }

// Header prints a bold title underlined with '='.
func Header(text string) {
	_, _ = Bold.Fprintln(Out, text)
	_, _ = fmt.Fprintln(Out, strings.Repeat("=", len(text)))
}

// SubHeader prints a bold title without underline.
func SubHeader(text string) {
	_, _ = Bold.Fprintln(Out, text)
}

// Label returns text in bold for inline use.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns text dimmed, typically for paths.
func DimText(text string) string { return Dim.Sprint(text) }

// CountText returns a count in cyan.
func CountText(count int) string { return Cyan.Sprint(count) }

// KeyValue prints an indented "label: value" summary line.
func KeyValue(label string, value any) {
	_, _ = fmt.Fprintf(Out, "  %s %v\n", Label(label+":"), value)
}

// Table writes headers and rows as aligned columns. Rows shorter than the
// header are padded with empty cells.
func Table(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
		under := make([]string, len(headers))
		for i, h := range headers {
			under[i] = strings.Repeat("-", len(h))
		}
		fmt.Fprintln(tw, strings.Join(under, "\t"))
	}
	for _, row := range rows {
		cells := row
		if len(cells) < len(headers) {
			cells = append(append([]string(nil), row...), make([]string, len(headers)-len(row))...)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
