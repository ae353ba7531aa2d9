package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"clonedirect/internal/importer"
)

func main() {
	var (
		filePath string
		outPath  string
	)
	flag.StringVar(&filePath, "file", "", "Path to the strain list CSV export")
	flag.StringVar(&outPath, "out", "strains.json", "Path of the catalog JSON file to write")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	start := time.Now()
	items, skipped, err := importer.NewCSVImporter(f).Run()
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	if err := importer.WriteJSON(outPath, items); err != nil {
		log.Fatalf("write catalog: %v", err)
	}

	fmt.Printf("Wrote %d items to %s (%d rows skipped) in %s\n",
		len(items), outPath, skipped, time.Since(start).Truncate(time.Millisecond))
}
