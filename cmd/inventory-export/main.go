package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/models/reports"
)

func main() {
	inventoryID := flag.Int("inventory-id", 0, "Inventory to export")
	scopeFlag := flag.String("scope", "all", "counted, surplus or all")
	out := flag.String("out", "", "Optional: output path (defaults to inventario_<doc>_<year>_<scope>.xlsx)")
	flag.Parse()

	if *inventoryID <= 0 {
		fmt.Fprintln(os.Stderr, "-inventory-id is required")
		os.Exit(2)
	}
	scope, err := reports.ParseExportScope(*scopeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.Load()
	db, err := config.OpenDatabase(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer config.CloseDatabase(db)

	inv, sheets, err := reports.ExportInventory(ctx, db, *inventoryID, scope)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}

	path := *out
	if path == "" {
		path = reports.ExportFileName(inv, scope)
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := reports.WriteWorkbook(f, sheets...); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "failed to write workbook: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("exported inventory %d (%s) to %s\n", inv.ID, scope, path)
}
