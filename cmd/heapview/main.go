package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	debugMode := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		case "--version", "-v":
			fmt.Printf("heapview %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built: %s\n", date)
			os.Exit(0)
		case "--debug", "-d":
			debugMode = true
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown argument: %s\n", arg)
			os.Exit(1)
		}
	}

	if err := initLogger(debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}
	slog.Info("starting heapview", "debug", debugMode)

	p := tea.NewProgram(
		newModel(),
		tea.WithAltScreen(), // Use alternate screen buffer
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`heapview - live allocator visualization

Runs a continuous random workload against a fresh heap and renders bin
occupancy and allocator statistics as they evolve.

Usage:
  heapview

Flags:
  -d, --debug   write debug logs to heapview.log

Keys:
  space   pause / resume the workload
  t       trim the heap
  c       run a consistency audit
  q       quit`)
}
