package engine

import "fmt"

// canSelect reports whether a card at position may be flipped right now
func (e *GameEngine) canSelect(position int) bool {
	if e.paused || e.closed {
		return false
	}
	if e.phase != PhaseAwaitingFirstCard && e.phase != PhaseAwaitingSecondCard {
		return false
	}

	card, ok := e.cardAt(position)
	if !ok || card.Flipped || card.Matched {
		return false
	}

	// The first card cannot be paired with itself
	if len(e.selected) == 1 && e.selected[0] == position {
		return false
	}
	return true
}

// selectCard flips a card and advances the turn. It returns nil when the
// input is ignored.
func (e *GameEngine) selectCard(position int) []Event {
	if !e.canSelect(position) {
		return nil
	}

	card, _ := e.cardAt(position)
	card.Flipped = true
	e.selected = append(e.selected, position)

	move := fmt.Sprintf("Flipped card at position %d", position)
	e.appendMove(move)
	events := []Event{e.event(EventFlip, move, 0)}

	if e.phase == PhaseAwaitingFirstCard {
		e.phase = PhaseAwaitingSecondCard
		e.message = "Pick a second card"
		return events
	}

	e.message = "Let's see..."
	e.enterResolving()
	return events
}

// resolve applies the outcome computed when the second card was picked
func (e *GameEngine) resolve() []Event {
	first, _ := e.cardAt(e.selected[0])
	second, _ := e.cardAt(e.selected[1])

	var events []Event
	matched := e.pendingMatch
	if matched {
		points := PointsForLevel(e.state.Level)
		first.Matched = true
		second.Matched = true
		e.state.Score += points

		move := fmt.Sprintf("Pair found: %d (+%d points)", first.PairID, points)
		e.appendMove(move)
		e.message = fmt.Sprintf("Pair found! +%d points", points)
		events = append(events, e.event(EventMatch, move, points))
	} else {
		first.Flipped = false
		second.Flipped = false

		move := fmt.Sprintf("Mismatch: %d - %d", first.PairID, second.PairID)
		e.appendMove(move)
		e.message = "Not a pair, try again"
		events = append(events, e.event(EventMismatch, move, 0))
	}

	e.selected = nil
	e.pendingMatch = false
	e.settleDue = false
	e.phase = PhaseAwaitingFirstCard

	if matched && AllMatched(e.state.Cards) {
		events = append(events, e.complete())
	}
	return events
}

// complete marks the level as finished. It runs at most once per game.
func (e *GameEngine) complete() Event {
	e.stopClock()
	e.state.Completed = true
	e.phase = PhaseCompleted

	move := fmt.Sprintf("Level %d completed with %d points", e.state.Level, e.state.Score)
	e.appendMove(move)
	e.message = fmt.Sprintf("Level complete! Score: %d, Time: %s", e.state.Score, FormatElapsed(e.elapsedNow()))
	return e.event(EventCompleted, move, 0)
}

// cardAt returns the card occupying a board position
func (e *GameEngine) cardAt(position int) (*Card, bool) {
	if position >= 0 && position < len(e.state.Cards) && e.state.Cards[position].Position == position {
		return &e.state.Cards[position], true
	}
	for i := range e.state.Cards {
		if e.state.Cards[i].Position == position {
			return &e.state.Cards[i], true
		}
	}
	return nil, false
}

// appendMove adds an entry to the append-only move log
func (e *GameEngine) appendMove(move string) {
	e.state.MoveHistory = append(e.state.MoveHistory, move)
}
