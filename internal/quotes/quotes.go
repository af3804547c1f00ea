// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package quotes feeds the front-page ticker. Quotes come from a plain
// text file, one per line, with a small built-in set as fallback when
// the file is missing or empty.
package quotes

import (
	"bufio"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
)

// fallback keeps the ticker alive when no quotes file is configured.
var fallback = []string{
	"Journalism is printing what someone else does not want printed.",
	"News is the first rough draft of history.",
	"Get it first, but first get it right.",
	"The best stories are found between the lines.",
}

// Rotator serves the ticker quotes in a fresh random order per request.
type Rotator struct {
	quotes []string
}

// Load reads quotes from path, one per line, skipping blank lines.
// A missing, unreadable, or empty file falls back to the built-in set.
func Load(path string) *Rotator {
	quotes := readLines(path)
	if len(quotes) == 0 {
		quotes = fallback
	}
	return &Rotator{quotes: quotes}
}

func readLines(path string) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("quotes file unavailable, using built-in set", "path", path, "error", err)
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("quotes file read failed, using built-in set", "path", path, "error", err)
		return nil
	}
	return lines
}

// Shuffled returns all quotes in a new uniformly random order. The
// internal set is never mutated, so concurrent callers are safe.
func (r *Rotator) Shuffled() []string {
	out := make([]string, len(r.quotes))
	copy(out, r.quotes)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Len reports how many quotes are loaded.
func (r *Rotator) Len() int {
	return len(r.quotes)
}
