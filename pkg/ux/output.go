// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package ux provides terminal output styling for the kin CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

// Aleutian color palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Muted text

	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorTealBright),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with its style.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes styled output according to the current personality.
//
// Thread Safety: Not safe for concurrent use.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

// NewPrinter creates a printer. Nil writers default to stdout and stderr.
func NewPrinter(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, errOut: errOut}
}

// Out returns the primary writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Title prints a styled title. Machine output omits it.
func (p *Printer) Title(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		return
	case PersonalityMinimal:
		fmt.Fprintln(p.out, text)
	default:
		fmt.Fprintln(p.out, Styles.Title.Render(text))
	}
}

// Success prints a success message.
func (p *Printer) Success(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(p.out, "OK: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.out, "%s %s\n", IconSuccess, text)
	default:
		fmt.Fprintf(p.out, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning to the error writer.
func (p *Printer) Warning(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(p.errOut, "WARN: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.errOut, "%s %s\n", IconWarning, text)
	default:
		fmt.Fprintf(p.errOut, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error to the error writer.
func (p *Printer) Error(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(p.errOut, "ERROR: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.errOut, "%s %s\n", IconError, text)
	default:
		fmt.Fprintf(p.errOut, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational line.
func (p *Printer) Info(text string) {
	if GetPersonality().Level == PersonalityFull {
		fmt.Fprintf(p.out, "%s %s\n", Styles.Muted.Render("│"), text)
		return
	}
	fmt.Fprintln(p.out, text)
}

// Box prints content under a title in a rounded box.
func (p *Printer) Box(title, content string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(p.out, "%s: %s\n", title, strings.ReplaceAll(content, "\n", "; "))
	case PersonalityMinimal:
		fmt.Fprintf(p.out, "%s\n%s\n", title, content)
	default:
		fmt.Fprintln(p.out, Styles.Box.Width(64).Render(Styles.Title.Render(title)+"\n"+content))
	}
}

// KeyValues prints labelled values, one per line, with aligned labels.
func (p *Printer) KeyValues(pairs [][2]string) {
	width := 0
	for _, kv := range pairs {
		if len(kv[0]) > width {
			width = len(kv[0])
		}
	}
	machine := GetPersonality().Level == PersonalityMachine
	for _, kv := range pairs {
		if machine {
			fmt.Fprintf(p.out, "%s\t%s\n", kv[0], kv[1])
			continue
		}
		label := fmt.Sprintf("%-*s", width, kv[0])
		if GetPersonality().Level == PersonalityFull {
			label = Styles.Muted.Render(label)
		}
		fmt.Fprintf(p.out, "%s  %s\n", label, kv[1])
	}
}

// Table prints rows under headers. Machine output is tab-separated with a
// header line; otherwise a bordered table is drawn.
func (p *Printer) Table(headers []string, rows [][]string) error {
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintln(p.out, strings.Join(headers, "\t"))
		for _, row := range rows {
			fmt.Fprintln(p.out, strings.Join(row, "\t"))
		}
		return nil
	}

	table := tablewriter.NewWriter(p.out)
	table.Header(toAny(headers)...)
	for _, row := range rows {
		if err := table.Append(toAny(row)...); err != nil {
			return fmt.Errorf("append table row: %w", err)
		}
	}
	return table.Render()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
