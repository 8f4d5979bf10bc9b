package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const runIDLayout = "20060102T150405Z"

// Generator creates identifiers for sync runs.
type Generator interface {
	NewRunID(startedAt time.Time) (string, error)
}

// RunIDGenerator yields run ids that sort by start time: the UTC second the
// run started followed by a random suffix, e.g. 20250908T060000Z-9f2c41ab.
type RunIDGenerator struct{}

func NewRunIDGenerator() *RunIDGenerator {
	return &RunIDGenerator{}
}

func (g *RunIDGenerator) NewRunID(startedAt time.Time) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return startedAt.UTC().Format(runIDLayout) + "-" + hex.EncodeToString(suffix), nil
}
