// seed-operators loads the operator roster from a CSV of "code,name" lines.
// Existing codes get their name updated; new codes are created.
//
// Usage:
//
//	DB_DRIVER=sqlite DB_PATH=stockcount.db go run ./cmd/seed-operators -file operators.csv
//	go run ./cmd/seed-operators -code 1001 -name "Maria Souza"
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/models"
)

func main() {
	file := flag.String("file", "", "CSV with one operator per line: code,name")
	code := flag.String("code", "", "Single operator code (instead of -file)")
	name := flag.String("name", "", "Single operator name, used with -code")
	flag.Parse()
	if *file == "" && *code == "" {
		fmt.Fprintln(os.Stderr, "either -file or -code/-name is required")
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
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		os.Exit(1)
	}

	existing, err := models.ListOperators(ctx, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list operators: %v\n", err)
		os.Exit(1)
	}
	byCode := make(map[string]int, len(existing))
	for _, op := range existing {
		byCode[op.Code] = op.ID
	}

	var created, updated, skipped int
	upsert := func(input *models.NewOperator) {
		if id, ok := byCode[input.Code]; ok {
			if _, err := models.UpdateOperator(ctx, db, id, input); err != nil {
				fmt.Fprintf(os.Stderr, "operator %s: %v\n", input.Code, err)
				skipped++
				return
			}
			updated++
			return
		}
		op, err := models.CreateOperator(ctx, db, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "operator %s: %v\n", input.Code, err)
			skipped++
			return
		}
		byCode[op.Code] = op.ID
		created++
	}

	if *code != "" {
		upsert(&models.NewOperator{Code: strings.TrimSpace(*code), Name: strings.TrimSpace(*name)})
	}
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *file, err)
			os.Exit(1)
		}
		defer f.Close()

		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		for {
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid csv: %v\n", err)
				os.Exit(1)
			}
			if len(record) < 2 || strings.EqualFold(strings.TrimSpace(record[0]), "code") {
				skipped++
				continue
			}
			upsert(&models.NewOperator{Code: strings.TrimSpace(record[0]), Name: strings.TrimSpace(record[1])})
		}
	}
	fmt.Printf("operators: %d created, %d updated, %d skipped\n", created, updated, skipped)
}
