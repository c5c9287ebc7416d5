// cmd/tools/catalog-inspect/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)

	listDir := listCmd.String("dir", "templates", "Template directory")
	validateDir := validateCmd.String("dir", "templates", "Template directory")
	exportDir := exportCmd.String("dir", "templates", "Template directory")
	statsDir := statsCmd.String("dir", "templates", "Template directory")
	statsID := statsCmd.String("id", "", "Template ID (category.name.version)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		registry := load(*listDir)
		for _, tpl := range registry.All() {
			meta := tpl.Metadata
			fmt.Printf("%-45s intents=%v entities=%v\n", meta.ID(), meta.Intents, meta.RequiredEntities)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		registry := load(*validateDir)
		summary := registry.Summarize()
		fmt.Printf("Catalog valid: %d templates, %d categories, %d intents\n",
			summary.TemplateCount, len(summary.Categories), len(summary.Intents))

	case "export":
		exportCmd.Parse(os.Args[2:])
		registry := load(*exportDir)
		if err := registry.ExportCatalog(os.Stdout); err != nil {
			fmt.Printf("Export failed: %v\n", err)
			os.Exit(1)
		}

	case "stats":
		statsCmd.Parse(os.Args[2:])
		if *statsID == "" {
			fmt.Println("Error: id is required for stats.")
			statsCmd.Usage()
			os.Exit(1)
		}
		registry := load(*statsDir)
		usage, err := registry.Stats().Get(context.Background(), *statsID)
		if err != nil {
			fmt.Printf("Stats lookup failed: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(usage)

	case "help":
		fallthrough
	default:
		help()
	}
}

func load(dir string) *catalog.Registry {
	log := logger.NewZapAdapter(logger.New("warn", "console"))
	registry, err := catalog.Load(dir, catalog.NewMemoryStatsStore(), log)
	if err != nil {
		fmt.Printf("Catalog load failed: %v\n", err)
		os.Exit(1)
	}
	return registry
}

func help() {
	fmt.Println(`Usage: catalog-inspect <command> [flags]

Commands:
  list      List every template with its intents and required entities
  validate  Load the catalog and print a summary
  export    Print the catalog metadata as JSON
  stats     Print usage stats for one template id`)
}
