package main

import (
	"fmt"
	"os"
)

// version is the gomssqlmcp release version.
const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "configure":
		if err := runConfigure(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "doctor":
		if err := runDoctor(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("gomssqlmcp — SQL Server MCP Server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gomssqlmcp serve       Start the MCP server (--stdio for stdio transport)")
	fmt.Println("  gomssqlmcp configure   Run interactive configuration wizard")
	fmt.Println("  gomssqlmcp doctor      Validate configuration and print agent snippets")
	fmt.Println("  gomssqlmcp --help      Show this help message")
}
