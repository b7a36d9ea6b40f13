package control

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/satindergrewal/drumgrid/internal/engine"
	"github.com/satindergrewal/drumgrid/internal/sample"
)

// LoadSamples decodes each path and assigns it to its track. A file that
// fails to decode is logged and skipped; only a failed Submit is
// returned.
func LoadSamples(ctx context.Context, r Reducer, dec sample.Decoder, paths map[int]string) error {
	for _, track := range sortedKeys(paths) {
		smp, err := dec.DecodeFile(paths[track])
		if err != nil {
			log.Printf("Preload track %d: %v", track, err)
			continue
		}
		if err := r.Submit(ctx, engine.AssignSample{Track: track, Sample: smp}); err != nil {
			return fmt.Errorf("assign track %d: %w", track, err)
		}
		log.Printf("Preloaded %v into track %d", smp, track)
	}
	return nil
}

// LoadPattern turns rows like "x---x---" (or a "(0) |x---|x---|" line
// printed by /api/pattern) into SetStep commands. See ParseRow for the
// row syntax. Steps past the pattern length are dropped.
func LoadPattern(ctx context.Context, r Reducer, cfg engine.Config, rows map[int]string) error {
	for _, track := range sortedKeys(rows) {
		steps := ParseRow(rows[track])
		if len(steps) > cfg.PatternLength() {
			log.Printf("Preload pattern track %d: %d steps, keeping %d", track, len(steps), cfg.PatternLength())
			steps = steps[:cfg.PatternLength()]
		}
		for step, active := range steps {
			if !active {
				continue
			}
			if err := r.Submit(ctx, engine.SetStep{Track: track, Step: step, Active: true}); err != nil {
				return fmt.Errorf("pattern track %d step %d: %w", track, step, err)
			}
		}
	}
	return nil
}

// ParseRow parses one pattern row into step toggles. A leading "(n)"
// track label is skipped. 'x' or 'X' is an active step, '|' and spaces
// are ignored, anything else is off.
func ParseRow(row string) []bool {
	row = strings.TrimSpace(row)
	if strings.HasPrefix(row, "(") {
		if label, rest, ok := strings.Cut(row[1:], ")"); ok && isDigits(label) {
			row = rest
		}
	}
	var steps []bool
	for _, c := range row {
		switch c {
		case '|', ' ', '\t':
		case 'x', 'X':
			steps = append(steps, true)
		default:
			steps = append(steps, false)
		}
	}
	return steps
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
