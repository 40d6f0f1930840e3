// Package storage loads and persists party-deck data: template decks and
// lexicons from YAML files, learned scores as JSON.
//
// SYSTEM ARCHITECTURE ROLE:
// This module is the boundary between the engine and the filesystem. The
// engine packages never touch disk; the service layer reads decks and
// lexicons through a Catalog and persists learning state through a
// ScoreBook.
//
// KEY RESPONSIBILITIES:
// - Parse deck files (one YAML file per game) into Template records
// - Parse lexicon files into named word lists for slot resolution
// - Persist per-template scores and the learning snapshot as JSON
// - Fuzzy search across the loaded catalog
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/dpshade/party-deck/internal/errors"
	"github.com/dpshade/party-deck/internal/models"
)

// deckFile is the on-disk shape of one deck.
type deckFile struct {
	Game      string            `yaml:"game"`
	Templates []models.Template `yaml:"templates"`
}

// Catalog holds every template loaded from a deck directory.
type Catalog struct {
	templates []models.Template
	byID      map[string]*models.Template
	byGame    map[string][]models.Template
}

// LoadCatalog reads every .yaml/.yml file under dir as a deck. Templates
// inherit the deck's game id when their own is empty. Files that fail to
// parse abort the load; an empty or missing directory yields an empty
// catalog.
func LoadCatalog(dir string) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[string]*models.Template),
		byGame: make(map[string][]models.Template),
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, errors.StorageError("read deck dir", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.StorageError(fmt.Sprintf("read deck %s", entry.Name()), err)
		}
		var deck deckFile
		if err := yaml.Unmarshal(data, &deck); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFileCorrupted,
				fmt.Sprintf("deck %s is not valid YAML", entry.Name()))
		}
		for _, t := range deck.Templates {
			if t.Game == "" {
				t.Game = deck.Game
			}
			t.FilePath = path
			c.templates = append(c.templates, t)
		}
	}

	for i := range c.templates {
		t := &c.templates[i]
		c.byID[t.ID] = t
		c.byGame[t.Game] = append(c.byGame[t.Game], *t)
	}
	return c, nil
}

// All returns every loaded template.
func (c *Catalog) All() []models.Template {
	return c.templates
}

// Len returns the number of loaded templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}

// ByID looks up a template by id.
func (c *Catalog) ByID(id string) (*models.Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// ByGame returns the candidate pool for a game.
func (c *Catalog) ByGame(game string) []models.Template {
	return c.byGame[game]
}

// Games lists the distinct game ids in the catalog.
func (c *Catalog) Games() []string {
	games := make([]string, 0, len(c.byGame))
	for g := range c.byGame {
		games = append(games, g)
	}
	return games
}

// Search performs fuzzy matching over id, text and family.
func (c *Catalog) Search(query string) []models.Template {
	if query == "" {
		return c.templates
	}
	searchStrings := make([]string, len(c.templates))
	for i, t := range c.templates {
		searchStrings[i] = strings.Join([]string{t.ID, t.Text, t.Family}, " ")
	}

	matches := fuzzy.Find(query, searchStrings)

	results := make([]models.Template, 0, len(matches))
	for _, match := range matches {
		results = append(results, c.templates[match.Index])
	}
	return results
}
