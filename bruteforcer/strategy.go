package main

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
)

// MemoryStrategy plays like a player with perfect recall. It only learns a
// card's image while the card is face up, and spends its turns on known
// pairs before exploring unseen cards.
type MemoryStrategy struct {
	seen    map[int]int // position -> image of cards seen face up
	matched map[int]bool
	size    int
}

// NewMemoryStrategy creates a strategy with nothing remembered
func NewMemoryStrategy() *MemoryStrategy {
	s := &MemoryStrategy{}
	s.Reset()
	return s
}

// Reset forgets every card, for a new board
func (s *MemoryStrategy) Reset() {
	s.seen = make(map[int]int)
	s.matched = make(map[int]bool)
	s.size = 0
}

// Observe records the face up and matched cards of a state
func (s *MemoryStrategy) Observe(state *engine.GameState) {
	if state == nil {
		return
	}
	s.size = len(state.Cards)
	for _, card := range state.Cards {
		switch {
		case card.Matched:
			s.matched[card.Position] = true
			delete(s.seen, card.Position)
		case card.Flipped:
			s.seen[card.Position] = card.ImageID
		}
	}
}

// Known returns the number of unmatched cards whose image is remembered
func (s *MemoryStrategy) Known() int {
	return len(s.seen)
}

// knownPair returns two remembered positions showing the same image
func (s *MemoryStrategy) knownPair() (int, int, bool) {
	byImage := make(map[int]int)
	for _, pos := range s.sortedSeen() {
		image := s.seen[pos]
		if other, ok := byImage[image]; ok {
			return other, pos, true
		}
		byImage[image] = pos
	}
	return 0, 0, false
}

func (s *MemoryStrategy) sortedSeen() []int {
	positions := make([]int, 0, len(s.seen))
	for pos := range s.seen {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}

// unknown returns the lowest position neither remembered nor matched
func (s *MemoryStrategy) unknown(exclude int) (int, bool) {
	for pos := 0; pos < s.size; pos++ {
		if pos == exclude || s.matched[pos] {
			continue
		}
		if _, ok := s.seen[pos]; !ok {
			return pos, true
		}
	}
	return 0, false
}

// First picks the first card of a turn
func (s *MemoryStrategy) First() (int, error) {
	if a, _, ok := s.knownPair(); ok {
		return a, nil
	}
	if pos, ok := s.unknown(-1); ok {
		return pos, nil
	}
	if seen := s.sortedSeen(); len(seen) > 0 {
		return seen[0], nil
	}
	return 0, fmt.Errorf("no card left to select")
}

// Second picks the card to pair with first, which must already be observed
// face up
func (s *MemoryStrategy) Second(first int) (int, error) {
	image, ok := s.seen[first]
	if ok {
		for _, pos := range s.sortedSeen() {
			if pos != first && s.seen[pos] == image {
				return pos, nil
			}
		}
	}
	if pos, ok := s.unknown(first); ok {
		return pos, nil
	}
	for _, pos := range s.sortedSeen() {
		if pos != first {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("no card left to pair with position %d", first)
}

// Game is the part of the game server the autoplayer drives
type Game interface {
	State() (*engine.GameState, error)
	Select(position int) (*service.SelectResult, error)
}

// PlayOptions bounds a run of Play
type PlayOptions struct {
	MaxTurns int
	// PollInterval is the wait between state polls while a pair settles
	PollInterval time.Duration
	MaxPolls     int
	Verbose      bool
}

// Play selects pairs until the level is completed or MaxTurns is reached.
// It returns the final state and the number of turns taken.
func Play(game Game, strategy *MemoryStrategy, opts PlayOptions) (*engine.GameState, int, error) {
	state, err := game.State()
	if err != nil {
		return nil, 0, err
	}
	strategy.Observe(state)

	turns := 0
	for !state.Completed && turns < opts.MaxTurns {
		if state.Paused {
			return state, turns, fmt.Errorf("game is paused")
		}

		state, err = waitSettled(game, state, opts)
		if err != nil {
			return state, turns, err
		}
		strategy.Observe(state)

		first, err := strategy.First()
		if err != nil {
			return state, turns, err
		}
		if state, err = selectCard(game, strategy, first); err != nil {
			return state, turns, err
		}

		second, err := strategy.Second(first)
		if err != nil {
			return state, turns, err
		}
		if state, err = selectCard(game, strategy, second); err != nil {
			return state, turns, err
		}
		turns++

		if opts.Verbose {
			log.Printf("Turn %d: %d and %d, score %d, pairs %d/%d, remembered %d",
				turns, first, second, state.Score, state.MatchedPairs, state.TotalPairs, strategy.Known())
		}

		if state, err = waitSettled(game, state, opts); err != nil {
			return state, turns, err
		}
		strategy.Observe(state)
	}

	return state, turns, nil
}

func selectCard(game Game, strategy *MemoryStrategy, position int) (*engine.GameState, error) {
	result, err := game.Select(position)
	if err != nil {
		return nil, err
	}
	if !result.Accepted {
		return result.GameState, fmt.Errorf("selection of position %d rejected: %s", position, result.Message)
	}
	strategy.Observe(result.GameState)
	return result.GameState, nil
}

// waitSettled polls until a pending pair has been resolved
func waitSettled(game Game, state *engine.GameState, opts PlayOptions) (*engine.GameState, error) {
	for polls := 0; state.PendingResolution; polls++ {
		if polls >= opts.MaxPolls {
			return state, fmt.Errorf("pair still resolving after %d polls", polls)
		}
		if opts.PollInterval > 0 {
			time.Sleep(opts.PollInterval)
		}

		var err error
		if state, err = game.State(); err != nil {
			return nil, err
		}
	}
	return state, nil
}
