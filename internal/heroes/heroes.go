// Package heroes carries the bundled hero catalog used to seed the store.
package heroes

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"dota-draft-helper/internal/domain"
)

//go:embed heroes.json
var catalogJSON []byte

func Catalog() ([]domain.Hero, error) {
	var heroes []domain.Hero
	if err := json.Unmarshal(catalogJSON, &heroes); err != nil {
		return nil, fmt.Errorf("failed to parse hero catalog: %w", err)
	}
	return heroes, nil
}
