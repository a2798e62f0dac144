package engine

import "math/rand/v2"

// BuildDeck generates a shuffled deck for a level.
// Each pair gets two cards with sequential ids and the same image; positions
// are reassigned after the shuffle so they follow sequence order.
// A nil rng uses the global source.
func BuildDeck(level int, rng *rand.Rand) []Card {
	pairCount := PairCountForLevel(level)
	cards := make([]Card, 0, pairCount*2)

	for i := 0; i < pairCount; i++ {
		pairID := i + 1
		imageID := i%ImagePaletteSize + 1
		cards = append(cards,
			Card{ID: i * 2, ImageID: imageID, PairID: pairID},
			Card{ID: i*2 + 1, ImageID: imageID, PairID: pairID},
		)
	}

	swap := func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	}
	if rng != nil {
		rng.Shuffle(len(cards), swap)
	} else {
		rand.Shuffle(len(cards), swap)
	}

	for i := range cards {
		cards[i].Position = i
	}
	return cards
}
