package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PedrooFerraz/Inventory-app-sub000/config"
	"github.com/PedrooFerraz/Inventory-app-sub000/models"
	"github.com/PedrooFerraz/Inventory-app-sub000/utils"
)

func main() {
	fileURI := flag.String("file", "", "CSV to import: local path, gs://bucket/object or sftp://user@host/path")
	name := flag.String("name", "", "Optional: file name recorded on the inventory (defaults to the base name of -file)")
	countType := flag.Int("count-type", 1, "1 = count by material code, 2 = count by storage position")
	flag.Parse()

	if strings.TrimSpace(*fileURI) == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		os.Exit(2)
	}
	if *name == "" {
		*name = filepath.Base(*fileURI)
	}

	ctx := context.Background()
	cfg := config.Load()
	logger := config.GetLogger()

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

	files := &utils.FileSources{}
	if strings.HasPrefix(*fileURI, "gs://") {
		client, err := config.NewStorageClient(ctx, cfg.GCSCredentialsJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create storage client: %v\n", err)
			os.Exit(1)
		}
		defer client.Close()
		files.GCS = utils.NewGCSFileSource(client)
	}
	if strings.HasPrefix(*fileURI, "sftp://") {
		files.SFTP = utils.NewSFTPFileSource(cfg.SFTP.Password, cfg.SFTP.KeyFile, cfg.SFTP.KnownHostsFile, cfg.SFTP.Timeout)
	}

	importer := models.NewInventoryImporter(db, files, nil, nil, logger)
	res, err := importer.InsertInventory(ctx, *fileURI, *name, models.CountType(*countType))
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		// the generic message hides the cause; print it for whoever runs the tool
		var failed *models.ImportFailedError
		if errors.As(err, &failed) && failed.Err != nil {
			fmt.Fprintf(os.Stderr, "cause: %v\n", failed.Err)
		}
		os.Exit(1)
	}

	fmt.Println(res.Message)
	for _, inv := range res.Inventories {
		fmt.Printf("  inventory %d: document %s/%s, %d items\n", inv.InventoryId, inv.Document, inv.Year, inv.ItemCount)
	}
}
