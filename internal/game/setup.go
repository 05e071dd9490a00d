package game

import (
	"fmt"
	"strings"

	"github.com/shovelsgame/shovels-server/internal/game/cards"
	"github.com/shovelsgame/shovels-server/internal/game/rules"
	"github.com/shovelsgame/shovels-server/internal/random"
)

// MaxPlayers is bounded by the 24 face cards in the pool.
const MaxPlayers = 24 / StartingCharacters

// Validate rejects option sets no game can be dealt with.
func (o Options) Validate(players int) error {
	switch {
	case o.MaxCharacters < StartingCharacters:
		return rules.Configf(rules.CodeInvalidOptions, "max_characters must be at least %d, got %d", StartingCharacters, o.MaxCharacters)
	case o.ShopPileSize < 0:
		return rules.Configf(rules.CodeInvalidOptions, "shop_pile_size must not be negative")
	case o.ShopRowSize < 1:
		return rules.Configf(rules.CodeInvalidOptions, "shop_row_size must be positive")
	case o.GravedigDeal < 1:
		return rules.Configf(rules.CodeInvalidOptions, "gravedig_deal must be positive")
	case o.RefreshCost < 0:
		return rules.Configf(rules.CodeInvalidOptions, "refresh_cost must not be negative")
	}
	if dealt := players*StartingCharacters + o.ShopPileSize; dealt > cards.PoolSize {
		return rules.Configf(rules.CodeInvalidOptions, "%d players and a %d card shop pile need more than %d cards", players, o.ShopPileSize, cards.PoolSize)
	}
	return nil
}

// Setup builds the pool, deals three characters to every player, carves the
// shop pile off the shuffled deck and returns a game waiting for the first
// player's draw. names may be nil; missing names default to "Player <id>".
func Setup(playerIDs []string, names map[string]string, opts Options) (*GameState, error) {
	if len(playerIDs) < 2 {
		return nil, rules.Configf(rules.CodeTooFewPlayers, "need at least 2 players, got %d", len(playerIDs))
	}
	if len(playerIDs) > MaxPlayers {
		return nil, rules.Configf(rules.CodeTooManyPlayers, "at most %d players can be dealt in, got %d", MaxPlayers, len(playerIDs))
	}
	seen := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		if strings.TrimSpace(id) == "" {
			return nil, rules.Configf(rules.CodeInvalidPlayerID, "player id must not be empty")
		}
		if seen[id] {
			return nil, rules.Configf(rules.CodeInvalidPlayerID, "duplicate player id %q", id)
		}
		seen[id] = true
	}
	if err := opts.Validate(len(playerIDs)); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		s, err := random.NewSeed()
		if err != nil {
			return nil, fmt.Errorf("seed game: %w", err)
		}
		seed = s
	}

	g := &GameState{
		Options:  opts,
		Phase:    rules.PhaseBuild,
		Subphase: rules.SubphaseDraw,
		ShopRow:  make([]ShopSlot, opts.ShopRowSize),
		Seed:     seed,
		// Stream 0 is reserved for card identities.
		Shuffles: 1,
	}

	pool := cards.NewPool(random.Stream(seed, 0))
	g.shuffle(pool)

	faces, deck := cards.Partition(pool)
	g.shuffle(faces)

	for _, id := range playerIDs {
		name := names[id]
		if name == "" {
			name = "Player " + id
		}
		p := &Player{ID: id, Name: name, Alive: true}
		for i := 0; i < StartingCharacters; i++ {
			last := len(faces) - 1
			p.Characters = append(p.Characters, &Character{Face: faces[last], Stack: []cards.Card{}})
			faces = faces[:last]
		}
		p.Hand = []cards.Card{}
		g.Players = append(g.Players, p)
	}

	deck = append(deck, faces...)
	g.shuffle(deck)

	cut := len(deck) - opts.ShopPileSize
	g.ShopPile = append([]cards.Card{}, deck[cut:]...)
	g.Deck = deck[:cut]
	g.DiscardPile = []cards.Card{}

	g.emit("", &rules.GameStarted{
		PlayerIDs:    append([]string(nil), playerIDs...),
		DeckSize:     len(g.Deck),
		ShopPileSize: len(g.ShopPile),
	})
	return g, nil
}

// shuffle permutes cs with the next deterministic stream of the game seed.
func (g *GameState) shuffle(cs []cards.Card) {
	cards.Shuffle(random.Stream(g.Seed, g.Shuffles), cs)
	g.Shuffles++
}
