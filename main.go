package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dpshade/party-deck/internal/augment"
	"github.com/dpshade/party-deck/internal/cli"
	"github.com/dpshade/party-deck/internal/config"
	"github.com/dpshade/party-deck/internal/server"
	"github.com/dpshade/party-deck/internal/service"
	"github.com/dpshade/party-deck/internal/ui"
)

var version = "0.1.0"

func printHelp() {
	fmt.Printf(`party-deck - adaptive party-card engine

USAGE:
    party-deck [OPTIONS] [COMMAND]

OPTIONS:
    --help          Show this help information
    --version       Print version information
    --config        Path to config file (default: ~/.party-deck/party-deck.yaml)
    --serve         Start the HTTP API server
    --addr          Listen address for --serve (overrides config)
    --players       Comma-separated player names for name slots
    --verbose       Enable debug logging

COMMANDS:
    (no command)         Show this help
    play <game>          Start the interactive play TUI
    list, ls             List all templates
    search <query>       Fuzzy search templates
    games                List playable games
    deal <game>          Deal one card headlessly
    simulate <game> <n>  Simulate n rounds with random feedback
    stats                Show session and learning stats
    export <file>        Export learning state
    import <file>        Import learning state
    help                 Show CLI command help

EXAMPLES:
    party-deck play roast_consensus --players "Ana,Bo,Caro"
    party-deck --serve --addr localhost:8787
    party-deck simulate roast_consensus 50
    party-deck list --format json
    party-deck export brain.json

STORAGE:
    Default directory: ~/.party-deck
    Override with: PARTY_DECK_DIR=<path>
`)
}

func defaultConfigPath() string {
	if dir := os.Getenv("PARTY_DECK_DIR"); dir != "" {
		return filepath.Join(dir, "party-deck.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".party-deck", "party-deck.yaml")
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help information")
		showVersion = flag.Bool("version", false, "Print version information")
		configPath  = flag.String("config", defaultConfigPath(), "Path to config file")
		serve       = flag.Bool("serve", false, "Start the HTTP API server")
		addr        = flag.String("addr", "", "Listen address for --serve")
		players     = flag.String("players", "", "Comma-separated player names")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}
	if *showVersion {
		fmt.Printf("party-deck %s\n", version)
		return
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if dir := os.Getenv("PARTY_DECK_DIR"); dir != "" {
		cfg.DeckDir = filepath.Join(dir, "decks")
		cfg.LexiconDir = filepath.Join(dir, "lexicons")
		cfg.DataDir = filepath.Join(dir, "data")
	}

	opts := []service.Option{service.WithLogger(logger)}
	if cfg.Augment.Enabled {
		apiKey := os.Getenv(cfg.Augment.APIKeyEnv)
		gen, err := augment.NewGeminiGenerator(context.Background(), apiKey, cfg.Augment.Model,
			time.Duration(cfg.Augment.TimeoutMs)*time.Millisecond)
		if err != nil {
			logger.Warn("rewrite generator unavailable, playing without augmentation", zap.Error(err))
		} else {
			opts = append(opts, service.WithGenerator(gen))
		}
	}

	svc, err := service.New(cfg, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()
	if *players != "" {
		var roster []string
		for _, p := range strings.Split(*players, ",") {
			if name := strings.TrimSpace(p); name != "" {
				roster = append(roster, name)
			}
		}
		svc.SetPlayers(roster)
	}

	if *serve {
		listenAddr := cfg.ListenAddr
		if *addr != "" {
			listenAddr = *addr
		}
		srv := server.New(svc, listenAddr, logger)
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		printHelp()
		return
	}

	if args[0] == "play" {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: play requires a game id")
			os.Exit(1)
		}
		p := tea.NewProgram(ui.NewModel(svc, args[1]), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cli.NewCLI(svc).ExecuteCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
