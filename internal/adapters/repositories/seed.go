package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/ports"
	"strings"
)

type RouteSeed struct {
	Name   string              `json:"name"`
	Points []domain.Coordinate `json:"points"`
}

// Populate the saved-route store from a JSON file of named point lists.
// Returns the number of routes written.
func SeedRoutesFromJSON(ctx context.Context, repo ports.RouteRepository, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed routes: read %q: %w", jsonPath, err)
	}

	var data []RouteSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed routes: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.Name) == "" {
			return 0, fmt.Errorf("seed routes: item at index %d: name cannot be empty", i+1)
		}
		for j, p := range item.Points {
			if !p.Valid() {
				return 0, fmt.Errorf("seed routes: item %q: invalid point %d", item.Name, j+1)
			}
		}
	}

	for _, item := range data {
		if _, err := repo.Save(ctx, domain.SavedRoute{Name: item.Name, Points: item.Points}); err != nil {
			return 0, fmt.Errorf("seed routes: %w", err)
		}
	}

	return len(data), nil
}
