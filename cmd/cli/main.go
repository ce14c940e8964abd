package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sixthed-backend/internal/ability"
	actionpkg "sixthed-backend/internal/action"
	"sixthed-backend/internal/cardstate"
	"sixthed-backend/internal/catalog"
	"sixthed-backend/internal/driver"
	"sixthed-backend/internal/engine"
	apperrors "sixthed-backend/internal/errors"
	"sixthed-backend/internal/logger"

	"github.com/google/uuid"
)

const (
	cliVersion = "1.0.0"
	cliName    = "sixthed CLI"
)

// defaultDeckIDs is the demo 40-card deck both seats play: one of each
// non-land template, padded out with basic lands so the lands-to-spells
// ratio is roughly playable.
func defaultDeckIDs(cat catalog.Adapter, ids []string) []string {
	var lands, spells []string
	for _, id := range ids {
		if t, ok := cat.Lookup(id); ok && t.IsLand() {
			lands = append(lands, id)
		} else {
			spells = append(spells, id)
		}
	}

	deck := append([]string(nil), spells...)
	for len(lands) > 0 && len(deck) < 40 {
		for _, id := range lands {
			if len(deck) >= 40 {
				break
			}
			deck = append(deck, id)
		}
	}
	return deck
}

// catalogIDs is the fixed bundled set this demo CLI knows how to build a
// deck from (mirrors assets/cards.json).
var catalogIDs = []string{
	"plains", "island", "swamp", "mountain", "forest",
	"grizzly_bears", "runeclaw_bear", "alpha_tyrranax", "silvercoat_lion",
	"pegasus_guardian", "venomous_asp", "nightwing_shade", "gorewing_drake",
	"raging_goblin", "merfolk_looter",
	"lightning_bolt", "fireball_blast", "terror_strike", "mana_counterspell",
	"scholarly_insight", "healing_touch", "knightly_favor", "shield_of_faith",
}

func buildDeck(cat catalog.Adapter, templateIDs []string, owner cardstate.Role) []*cardstate.CardInstance {
	deck := make([]*cardstate.CardInstance, 0, len(templateIDs))
	for _, templateID := range templateIDs {
		if _, ok := cat.Lookup(templateID); !ok {
			continue
		}
		deck = append(deck, &cardstate.CardInstance{
			InstanceID: uuid.New().String(),
			TemplateID: templateID,
			Owner:      owner,
			Controller: owner,
			Zone:       cardstate.ZoneLibrary,
		})
	}
	return deck
}

func main() {
	fmt.Printf("%s v%s\n", cliName, cliVersion)
	fmt.Println("A local two-seat driver over the rules engine. Type 'help' at the prompt.")
	fmt.Println()

	if err := logger.Init(nil); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cat, err := catalog.LoadDefault()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load card catalog:", err)
		os.Exit(1)
	}

	eng := engine.New(cat, ability.NewActivatedRegistry(), ability.NewSpellRegistry())

	deckIDs := defaultDeckIDs(cat, catalogIDs)
	seed := time.Now().UnixNano()
	state := eng.InitializeGame(buildDeck(cat, deckIDs, cardstate.RoleP1), buildDeck(cat, deckIDs, cardstate.RoleP2), seed)

	ui := NewUI(cat)
	ui.UpdateGameState(state)

	d := &dashboard{eng: eng, state: state, ui: ui, guard: &driver.LoopGuard{}}
	d.run()
}

// dashboard drives the local game: it keeps the current GameState,
// prompts whichever player holds priority for their next action from
// the engine's own legal-action list, and applies it. A driver.LoopGuard
// forces an END_TURN if the same priority window persists too long
// (e.g. both seats keep passing with no mutual progress).
type dashboard struct {
	eng   *engine.Engine
	state *cardstate.GameState
	ui    *UI
	guard *driver.LoopGuard
}

func (d *dashboard) run() {
	reader := bufio.NewReader(os.Stdin)

	for !d.state.GameOver {
		player := d.state.PriorityPlayer
		legal := d.eng.LegalActions(d.state, player)
		if len(legal) == 0 {
			d.setResult("error", fmt.Sprintf("%s has no legal actions; stopping", player))
			break
		}

		d.refresh()

		if len(legal) == 1 {
			d.apply(legal[0])
			continue
		}

		fmt.Printf("%s to act\n", player)
		fmt.Println(d.ui.RenderActionMenu(legal, d.eng))
		fmt.Print(d.ui.RenderPrompt())

		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)

		switch cmd {
		case "help", "h":
			fmt.Println("Enter the number of the action to take, or 'quit' to exit.")
			continue
		case "quit", "exit", "q":
			fmt.Println("goodbye")
			return
		}

		idx, err := strconv.Atoi(cmd)
		if err != nil || idx < 0 || idx >= len(legal) {
			d.setResult("error", "enter a number from the menu")
			continue
		}
		d.apply(legal[idx])
	}

	d.refresh()
}

func (d *dashboard) apply(a actionpkg.Action) {
	next, err := d.eng.Apply(d.state, a)
	if err != nil {
		if illegal, ok := err.(*apperrors.IllegalAction); ok {
			d.setResult("error", illegal.Error())
		} else {
			d.setResult("error", err.Error())
		}
		return
	}
	d.state = next
	d.ui.UpdateGameState(next)
	d.guard.Observe(next)
	if d.guard.Stuck() {
		d.forceEndTurn()
	}
}

// forceEndTurn breaks a stuck loop (§C's driver.LoopGuard) by applying
// an END_TURN on behalf of the active player if one is legal, otherwise
// the game is left as-is for inspection.
func (d *dashboard) forceEndTurn() {
	for _, a := range d.eng.LegalActions(d.state, d.state.ActivePlayer) {
		if a.Kind == actionpkg.KindEndTurn {
			next, err := d.eng.Apply(d.state, a)
			if err == nil {
				d.state = next
				d.ui.UpdateGameState(next)
			}
			break
		}
	}
	d.guard.Reset()
	d.setResult("error", "loop guard tripped, forced end of turn")
}

func (d *dashboard) setResult(kind, message string) {
	d.ui.SetLastCommand("", d.ui.RenderMessage(kind, message))
}

func (d *dashboard) refresh() {
	fmt.Print("\033[2J\033[H")
	fmt.Println(d.ui.RenderFullDisplay())
	fmt.Println()
}
