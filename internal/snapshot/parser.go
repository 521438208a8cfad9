// Package snapshot turns a raw console capture of the game server into a
// typed metrics snapshot. Parsing is a pure transform: no retries, no side
// effects, one text blob in, one Snapshot (or error) out.
package snapshot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wardenhq/warden/internal/models"
)

// ErrMissingFPS is returned when the capture window contains no FPS value.
// FPS is the one mandatory field: without it no snapshot is produced.
var ErrMissingFPS = errors.New("no FPS value found in capture")

// ErrNoSummaryLine is returned when the capture window contains no
// performance summary line at all.
var ErrNoSummaryLine = errors.New("no performance summary line found in capture")

var (
	reFPS       = regexp.MustCompile(`FPS: ([\d.]+)`)
	reFrameTime = regexp.MustCompile(`frame time \(avg: ([\d.]+) ms, min: ([\d.]+) ms, max: ([\d.]+) ms\)`)
	reMemory    = regexp.MustCompile(`Mem: (\d+)`)
	reAI        = regexp.MustCompile(`AI: (\d+)`)
	reVehicles  = regexp.MustCompile(`Veh: (\d+)\s*\(`)
	rePlayers   = regexp.MustCompile(`Players connected: (\d+)`)

	// Per-client markers, counted across the whole capture window rather
	// than a single summary line.
	reClient     = regexp.MustCompile(`\[C\d+\]`)
	rePacketLoss = regexp.MustCompile(`PktLoss: [1-9]\d*/100`)
)

// Parse extracts a metrics snapshot from the tail of a live console buffer.
// The input may contain arbitrary log noise; only the last performance
// summary line and the last network summary line carry field data, so a
// window that caught several summaries reports the most recent state.
func Parse(raw string) (*models.Snapshot, error) {
	perfLine := lastMatchingLine(raw, isPerfSummary)
	if perfLine == "" {
		return nil, ErrNoSummaryLine
	}

	fps, ok := matchFloat(reFPS, perfLine)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingFPS, perfLine)
	}

	snap := &models.Snapshot{
		CapturedAt: time.Now().UTC(),
		FPS:        fps,
	}

	// Optional fields extract independently; a missing pattern is not an
	// error, the field just stays zero.
	if m := reFrameTime.FindStringSubmatch(perfLine); m != nil {
		snap.FrameTimeAvg, _ = strconv.ParseFloat(m[1], 64)
		snap.FrameTimeMin, _ = strconv.ParseFloat(m[2], 64)
		snap.FrameTimeMax, _ = strconv.ParseFloat(m[3], 64)
	}
	if v, ok := matchInt(reMemory, perfLine); ok {
		snap.Memory = int64(v)
	}
	if v, ok := matchInt(reAI, perfLine); ok {
		snap.AI = v
	}
	if v, ok := matchInt(reVehicles, perfLine); ok {
		snap.Vehicles = v
	}

	if netLine := lastMatchingLine(raw, isNetSummary); netLine != "" {
		if v, ok := matchInt(rePlayers, netLine); ok {
			snap.Players = v
		}
	}

	snap.TotalClients = len(reClient.FindAllString(raw, -1))
	snap.PacketLossClients = len(rePacketLoss.FindAllString(raw, -1))

	return snap, nil
}

// isPerfSummary reports whether a trimmed line is a performance summary.
func isPerfSummary(line string) bool {
	return strings.HasPrefix(line, "DEFAULT") && strings.Contains(line, "FPS:")
}

// isNetSummary reports whether a trimmed line is a network summary.
func isNetSummary(line string) bool {
	return strings.Contains(line, "NETWORK") && strings.Contains(line, "Players connected:")
}

// lastMatchingLine returns the last line of raw satisfying match, trimmed,
// or an empty string if none does.
func lastMatchingLine(raw string, match func(string) bool) string {
	lines := strings.Split(raw, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if match(line) {
			return line
		}
	}

	return ""
}

func matchFloat(re *regexp.Regexp, line string) (float64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

func matchInt(re *regexp.Regexp, line string) (int, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return v, true
}
