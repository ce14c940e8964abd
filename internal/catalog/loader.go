package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"sixthed-backend/internal/logger"

	"go.uber.org/zap"
)

// cardDataPath is the default location of the bundled card set, mirroring
// the teacher's deck loader (internal/session/deck/deck_loader.go), which
// reads its own JSON card table from a fixed assets path rather than a
// database.
const cardDataPath = "assets/cards.json"

// jsonTemplate is the on-disk shape of one catalog record. It mirrors
// Template field-for-field under camelCase JSON keys; Power/Toughness are
// optional integers, left absent on records that have none.
type jsonTemplate struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	TypeLine      string   `json:"typeLine"`
	OracleText    string   `json:"oracleText"`
	ManaCostText  string   `json:"manaCostText"`
	CMC           int      `json:"cmc"`
	Colors        []string `json:"colors"`
	ColorIdentity []string `json:"colorIdentity"`
	Keywords      []string `json:"keywords"`
	Power         *int     `json:"power,omitempty"`
	Toughness     *int     `json:"toughness,omitempty"`
}

// LoadFromJSON reads a catalog record set from path and returns an
// InMemory adapter populated with it. Unlike the teacher's
// LoadCardsFromJSON, which sorts loaded cards into several
// already-categorized slices (project/corporation/prelude/starting),
// this catalog has a single flat namespace keyed by template ID and
// leaves categorization to the Is*/Has* predicates on Template, so the
// loader's only job is decode-and-register.
func LoadFromJSON(path string) (*InMemory, error) {
	log := logger.Get()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read card data file: %w", err)
	}

	var records []jsonTemplate
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("catalog: parse card data: %w", err)
	}

	templates := make([]Template, 0, len(records))
	for _, r := range records {
		templates = append(templates, Template{
			ID:            r.ID,
			Name:          r.Name,
			TypeLine:      r.TypeLine,
			OracleText:    r.OracleText,
			ManaCostText:  r.ManaCostText,
			CMC:           r.CMC,
			Colors:        r.Colors,
			ColorIdentity: r.ColorIdentity,
			Keywords:      r.Keywords,
			Power:         r.Power,
			Toughness:     r.Toughness,
		})
	}

	catalog := NewInMemory(templates)

	log.Info("📚 card catalog loaded",
		zap.String("path", path),
		zap.Int("templates", len(templates)))

	return catalog, nil
}

// LoadDefault loads the bundled card set from its standard assets path.
func LoadDefault() (*InMemory, error) {
	return LoadFromJSON(cardDataPath)
}
