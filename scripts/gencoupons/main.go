package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// generateSampleCoupons writes gzipped code files for the admin coupon import.
// Each file holds one code per line. A few codes are repeated across files so
// that an import of several sources shows deduplication.
func main() {
	dataDir := flag.String("dir", "data/coupons", "output directory")
	random := flag.Int("random", 0, "extra random codes per file")
	flag.Parse()

	// Create directory if it doesn't exist
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	coupons := map[string][]string{
		"autumn-campaign.gz": {
			"AUTUMN-BEANS",
			"AUTUMN-ROAST",
			"SHARED-ONE",
			"SHARED-ALL",
		},
		"winter-campaign.gz": {
			"WINTER-BREW",
			"WINTER-MOKA",
			"SHARED-ONE",
			"SHARED-ALL",
		},
		"partner-cafes.gz": {
			"CAFE-BERLIN",
			"CAFE-LISBON",
			"SHARED-ALL",
		},
	}

	for filename, codes := range coupons {
		for i := 0; i < *random; i++ {
			codes = append(codes, randomCode(filename))
		}

		filePath := filepath.Join(*dataDir, filename)
		if err := createCouponFile(filePath, codes); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d codes\n", filePath, len(codes))
	}

	fmt.Println("\nSample coupon files created successfully!")
	fmt.Println("SHARED-ONE appears in two files and SHARED-ALL in all three; each is created once.")
}

func randomCode(filename string) string {
	prefix := strings.ToUpper(strings.SplitN(filename, "-", 2)[0])
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}

func createCouponFile(filePath string, coupons []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, coupon := range coupons {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", coupon); err != nil {
			return fmt.Errorf("failed to write coupon: %w", err)
		}
	}

	return nil
}
