package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/savingsim/internal/tui"
)

func main() {
	catalog := flag.String("catalog", "", "additional product catalog YAML file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: savingsim-tui [-catalog products.yaml] <config-file>")
		os.Exit(1)
	}
	configPath := flag.Arg(0)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Error: Config file not found: %s\n", configPath)
		os.Exit(1)
	}

	p := tea.NewProgram(
		tui.NewModel(configPath, *catalog),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
