package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// exportResultLocked appends a human-readable summary of the finished
// game to the results file. Caller holds the session mutex.
func (s *Session) exportResultLocked(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Game %s - finished %s\n", s.round.ID, time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	sb.WriteString(fmt.Sprintf("Word: %q\n", s.round.Word))
	sb.WriteString(fmt.Sprintf("Bluffer: %s\n\n", s.nameForLocked(s.round.BlufferID)))

	sb.WriteString("Players:\n")
	for _, id := range s.playerOrder {
		sb.WriteString(fmt.Sprintf("- %s\n", s.nameForLocked(id)))
	}
	sb.WriteString("\n")

	for i, res := range s.results {
		sb.WriteString(fmt.Sprintf("Pass %d votes:\n", i+1))
		for _, id := range s.playerOrder {
			if count, ok := res.Counts[id]; ok {
				sb.WriteString(fmt.Sprintf("- %s: %d vote(s)\n", s.nameForLocked(id), count))
			}
		}
		sb.WriteString(fmt.Sprintf("Accused: %s\n\n", s.nameForLocked(res.Accused)))
	}

	if s.lastResult != nil && s.lastResult.BlufferCaught {
		sb.WriteString("Outcome: bluffer caught, players win\n")
	} else {
		sb.WriteString("Outcome: bluffer evaded, bluffer wins\n")
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

func (s *Session) nameForLocked(id string) string {
	if p := s.players[id]; p != nil && p.Name != "" {
		return p.Name
	}
	if id == "" {
		return "nobody"
	}
	return id
}
