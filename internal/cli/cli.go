// Package cli provides headless command-line access to the party-deck
// engine: dealing cards, committing feedback, inspecting the catalog and
// simulating rounds for tuning.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dpshade/party-deck/internal/models"
	"github.com/dpshade/party-deck/internal/service"
)

// CLI provides headless command-line interface functionality
type CLI struct {
	service *service.Service
}

// NewCLI creates a new CLI instance
func NewCLI(svc *service.Service) *CLI {
	return &CLI{service: svc}
}

// ExecuteCommand processes a CLI command and returns the result
func (c *CLI) ExecuteCommand(args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "list", "ls":
		return c.listTemplates(commandArgs)
	case "search":
		return c.searchTemplates(commandArgs)
	case "games":
		return c.listGames()
	case "deal":
		return c.dealCard(commandArgs)
	case "simulate":
		return c.simulate(commandArgs)
	case "stats":
		return c.showStats(commandArgs)
	case "export":
		return c.exportLearning(commandArgs)
	case "import":
		return c.importLearning(commandArgs)
	case "help":
		return c.printUsage()
	default:
		return fmt.Errorf("unknown command: %s. Use 'help' for usage information", command)
	}
}

func (c *CLI) printUsage() error {
	fmt.Print(`Commands:
    list, ls             List all templates
    search <query>       Fuzzy search templates
    games                List playable games
    deal <game>          Deal one card for a game
    simulate <game> <n>  Simulate n rounds with random feedback
    stats                Show session and learning stats
    export <file>        Export learning state to a JSON file
    import <file>        Import learning state from a JSON file
    help                 Show this help
`)
	return nil
}

func (c *CLI) listTemplates(args []string) error {
	return c.printTemplates(c.service.Catalog().All(), parseFormat(args))
}

func (c *CLI) searchTemplates(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires a query")
	}
	return c.printTemplates(c.service.Search(args[0]), parseFormat(args[1:]))
}

func (c *CLI) listGames() error {
	for _, g := range c.service.Catalog().Games() {
		fmt.Println(g)
	}
	return nil
}

func (c *CLI) dealCard(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("deal requires a game id")
	}
	round, err := c.service.NextCard(context.Background(), args[0])
	if err != nil {
		return err
	}
	if parseFormat(args[1:]) == "json" {
		return printJSON(round)
	}
	fmt.Printf("[%s] %s\n", round.Card.ID, round.Card.Text)
	return nil
}

// simulate deals and commits n rounds with random feedback, useful for
// observing how the learned scores drift.
func (c *CLI) simulate(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("simulate requires a game id and a round count")
	}
	game := args[0]
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid round count %q", args[1])
	}

	rng := rand.New(rand.NewSource(int64(n)))
	ctx := context.Background()
	for i := 0; i < n; i++ {
		round, err := c.service.NextCard(ctx, game)
		if err != nil {
			return err
		}
		fb := models.Feedback{
			Positive:  rng.Intn(4),
			Neutral:   rng.Intn(2),
			Negative:  rng.Intn(3),
			LatencyMs: 500 + rng.Intn(4000),
		}
		result, err := c.service.CommitRound(round, fb)
		if err != nil {
			return err
		}
		fmt.Printf("round %d: %-20s reward=%+.1f score=%+.2f\n",
			result.RoundIndex, result.TemplateID, result.Reward, result.Score)
	}
	return nil
}

func (c *CLI) showStats(args []string) error {
	stats := c.service.Stats()
	if parseFormat(args) == "json" {
		return printJSON(stats)
	}
	fmt.Printf("session:  %s\n", stats.SessionID)
	fmt.Printf("rounds:   %d\n", stats.RoundsPlayed)
	fmt.Printf("decks:    %d templates across %d games\n", stats.Templates, len(stats.Games))
	if len(stats.RecentFamilies) > 0 {
		fmt.Printf("recent:   %v\n", stats.RecentFamilies)
	}
	if len(stats.Scores) > 0 {
		fmt.Println("scores:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for id, score := range stats.Scores {
			fmt.Fprintf(w, "  %s\t%+.2f\n", id, score)
		}
		w.Flush()
	}
	return nil
}

func (c *CLI) exportLearning(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("export requires a file path")
	}
	if err := c.service.ExportLearning(args[0]); err != nil {
		return err
	}
	fmt.Printf("learning state exported to %s\n", args[0])
	return nil
}

func (c *CLI) importLearning(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("import requires a file path")
	}
	if err := c.service.ImportLearning(args[0]); err != nil {
		return err
	}
	fmt.Printf("learning state imported from %s\n", args[0])
	return nil
}

func (c *CLI) printTemplates(templates []models.Template, format string) error {
	if format == "json" {
		return printJSON(templates)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGAME\tFAMILY\tSPICE\tTEXT")
	for _, t := range templates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", t.ID, t.Game, t.Family, t.Spice, t.Text)
	}
	return w.Flush()
}

func parseFormat(args []string) string {
	for i, arg := range args {
		if (arg == "--format" || arg == "-f") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return "text"
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
