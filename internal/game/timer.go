package game

import (
	"time"

	"github.com/rs/zerolog/log"
)

// startTurnTimerLocked arms the optional per-turn deadline. When it
// fires it behaves like a turn-over from the current drawer. The
// generation counter makes a stale callback a no-op: any legitimate
// turn end bumps it before the timer can double-advance.
func (s *Session) startTurnTimerLocked() {
	if s.opts.TurnTimeout <= 0 {
		return
	}
	s.turnGen++
	gen := s.turnGen
	s.turnTimer = time.AfterFunc(s.opts.TurnTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.phase != PhaseDrawing || gen != s.turnGen {
			return
		}
		log.Info().Str("drawer", s.currentDrawerLocked()).Msg("turn deadline expired")
		s.endTurnLocked()
	})
}

func (s *Session) cancelTurnTimerLocked() {
	s.turnGen++
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
}
