package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/catalog"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

const usage = `Usage:
  catalog import [-yes] <file.xlsx>   create categories and products from a workbook
  catalog export <file.xlsx>          write the current catalog to a workbook`

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	cmd := os.Args[1]
	flags := flag.NewFlagSet(cmd, flag.ExitOnError)
	assumeYes := flags.Bool("yes", false, "skip the confirmation prompt")
	if err := flags.Parse(os.Args[2:]); err != nil || flags.NArg() != 1 {
		log.Fatal(usage)
	}
	filePath := flags.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	conn := db.GetDB()
	products := service.NewProductService(
		conn,
		repository.NewProductRepository(conn),
		repository.NewCategoryRepository(conn),
		repository.NewCartRepository(conn),
	)

	ctx := context.Background()
	switch cmd {
	case "import":
		err = runImport(ctx, products, filePath, *assumeYes)
	case "export":
		err = runExport(ctx, products, filePath)
	default:
		log.Fatal(usage)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runImport(ctx context.Context, store catalog.Store, filePath string, assumeYes bool) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, err := catalog.Read(f)
	if err != nil {
		return fmt.Errorf("failed to read XLSX: %w", err)
	}
	fmt.Printf("Total products to import: %d\n", len(rows))

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return nil
		}
	}

	result, err := catalog.Import(ctx, store, rows)
	if err != nil {
		fmt.Printf("Imported %d products before the failure\n", result.Created)
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Products created: %d, categories created: %d\n", result.Created, result.Categories)
	return nil
}

func runExport(ctx context.Context, store catalog.Store, filePath string) error {
	products, err := catalog.Export(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filePath, err)
	}
	if err := catalog.Write(f, products); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Exported %d products to %s\n", len(products), filePath)
	return nil
}
