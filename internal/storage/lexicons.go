package storage

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/party-deck/internal/errors"
)

// Lexicons maps slot names to word lists loaded from YAML files.
type Lexicons struct {
	lists map[string][]string
}

// LoadLexicons reads every .yaml/.yml file under dir. Each file holds a map
// of lexicon name to word list; entries across files merge, later files
// appending to earlier ones. A missing directory yields empty lexicons.
func LoadLexicons(dir string) (*Lexicons, error) {
	l := &Lexicons{lists: make(map[string][]string)}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, errors.StorageError("read lexicon dir", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.StorageError(fmt.Sprintf("read lexicon %s", entry.Name()), err)
		}
		var file map[string][]string
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFileCorrupted,
				fmt.Sprintf("lexicon %s is not valid YAML", entry.Name()))
		}
		for name, words := range file {
			l.lists[name] = append(l.lists[name], words...)
		}
	}
	return l, nil
}

// Words returns the word list for a lexicon name.
func (l *Lexicons) Words(name string) []string {
	return l.lists[name]
}

// Names lists the loaded lexicon names.
func (l *Lexicons) Names() []string {
	names := make([]string, 0, len(l.lists))
	for n := range l.lists {
		names = append(names, n)
	}
	return names
}

// Resolver builds a slot resolver over these lexicons and a player roster.
// The slots "target_name" and "player" draw from players; any other slot
// draws from the lexicon of the same name. Within one card the resolver
// avoids repeating a value from the same list until the list is exhausted.
func (l *Lexicons) Resolver(players []string, rng *rand.Rand) func(name string) (string, bool) {
	used := make(map[string]map[string]bool)

	pick := func(list []string, key string) (string, bool) {
		if len(list) == 0 {
			return "", false
		}
		seen := used[key]
		if seen == nil {
			seen = make(map[string]bool)
			used[key] = seen
		}
		var avail []string
		for _, w := range list {
			if !seen[w] {
				avail = append(avail, w)
			}
		}
		if len(avail) == 0 {
			// list exhausted within this card, allow repeats
			avail = list
		}
		w := avail[rng.Intn(len(avail))]
		seen[w] = true
		return w, true
	}

	return func(name string) (string, bool) {
		trimmed := strings.TrimSpace(name)
		if trimmed == "target_name" || trimmed == "player" {
			return pick(players, "$players")
		}
		return pick(l.Words(trimmed), trimmed)
	}
}
