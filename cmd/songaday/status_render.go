package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

const statusLabelWidth = 16

// statusPrinter accumulates sectioned "label: [KIND] message" lines.
type statusPrinter struct {
	colorize bool
	lines    []string
}

func (p *statusPrinter) section(title string) {
	if len(p.lines) > 0 {
		p.lines = append(p.lines, "")
	}
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	p.lines = append(p.lines, p.paint(ansiBlue, header), p.paint(ansiBlue, strings.Repeat("-", len(header))))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	style := statusStyles[kind]
	text := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.label)
	if message != "" {
		text += " " + message
	}
	p.lines = append(p.lines, p.paint(style.color, text))
}

func (p *statusPrinter) paint(color, text string) string {
	if !p.colorize || color == "" {
		return text
	}
	return color + text + ansiReset
}

func (p *statusPrinter) String() string {
	return strings.Join(p.lines, "\n")
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
