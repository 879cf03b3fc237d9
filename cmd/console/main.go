package main

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/cyberdrill/pkg/persona"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	scenarioMap, err := listScenarios(client, cfg.APIBaseURL)
	if err != nil || len(scenarioMap) == 0 {
		fmt.Fprintf(os.Stderr, "Failed to list scenarios: %v\n", err)
		os.Exit(1)
	}

	orderedNames := make([]string, 0, len(scenarioMap))
	for name := range scenarioMap {
		orderedNames = append(orderedNames, name)
	}
	sort.Strings(orderedNames)

	fmt.Println("Available Scenarios:")
	for i := range orderedNames {
		fmt.Printf("  %d - %s (%s)\n", i+1, orderedNames[i], scenarioMap[orderedNames[i]])
	}
	fmt.Print("\nSelect a scenario by number: ")

	var choice int
	if _, err := fmt.Scanf("%d", &choice); err != nil || choice < 1 || choice > len(orderedNames) {
		fmt.Fprintf(os.Stderr, "Invalid selection\n")
		os.Exit(1)
	}
	scenarioFile := scenarioMap[orderedNames[choice-1]]

	fmt.Print("Your name: ")
	var playerName string
	if _, err := fmt.Scanf("%s", &playerName); err != nil || playerName == "" {
		fmt.Fprintf(os.Stderr, "A player name is required\n")
		os.Exit(1)
	}

	roles := persona.All()
	fmt.Println("\nPersonas:")
	for i, p := range roles {
		fmt.Printf("  %d - %s\n", i+1, persona.Display(p))
	}
	fmt.Print("\nSelect your persona by number: ")

	var roleChoice int
	if _, err := fmt.Scanf("%d", &roleChoice); err != nil || roleChoice < 1 || roleChoice > len(roles) {
		fmt.Fprintf(os.Stderr, "Invalid selection\n")
		os.Exit(1)
	}
	role := roles[roleChoice-1]

	sess, err := createSession(client, cfg.APIBaseURL, scenarioFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}

	if err := joinSession(client, cfg.APIBaseURL, sess.ID, playerName, role); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to join session: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client, sess, playerName, role),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
