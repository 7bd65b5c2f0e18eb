package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	aging "parcelops/internal/aging/domain"
	agingrepo "parcelops/internal/aging/infrastructure/postgres"
	aginginterfaces "parcelops/internal/aging/interfaces"
)

const dateLayout = "2006-01-02"

type config struct {
	dbURL   string
	csvPath string
	outDir  string
	asOf    string
	format  string
}

func main() {
	cfg := config{}
	flag.StringVar(&cfg.dbURL, "db", os.Getenv("DATABASE_URL"), "postgres connection string")
	flag.StringVar(&cfg.csvPath, "csv", "", "read receivables from a CSV file instead of the database")
	flag.StringVar(&cfg.outDir, "out", ".", "output directory")
	flag.StringVar(&cfg.asOf, "as-of", "", "report date (YYYY-MM-DD, default today)")
	flag.StringVar(&cfg.format, "format", "xlsx", "output format: xlsx, pdf or both")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "agingreport: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	asOf := time.Now().UTC()
	if cfg.asOf != "" {
		parsed, err := time.Parse(dateLayout, cfg.asOf)
		if err != nil {
			return fmt.Errorf("parse as-of: %w", err)
		}
		asOf = parsed
	}

	receivables, err := loadReceivables(cfg)
	if err != nil {
		return err
	}

	report, err := aging.ComputeAging(receivables, asOf)
	if err != nil {
		return fmt.Errorf("compute aging: %w", err)
	}

	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return err
	}
	stamp := asOf.Format(dateLayout)

	if cfg.format == "xlsx" || cfg.format == "both" {
		data, err := aginginterfaces.BuildAgingXLSX(report)
		if err != nil {
			return fmt.Errorf("build xlsx: %w", err)
		}
		path := filepath.Join(cfg.outDir, "aging-"+stamp+".xlsx")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Println(path)
	}
	if cfg.format == "pdf" || cfg.format == "both" {
		data, err := aginginterfaces.BuildAgingPDF(report)
		if err != nil {
			return fmt.Errorf("build pdf: %w", err)
		}
		path := filepath.Join(cfg.outDir, "aging-"+stamp+".pdf")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Println(path)
	}

	fmt.Printf("rows=%d grand_total=%.2f\n", len(report.Rows), report.GrandTotal)
	return nil
}

func loadReceivables(cfg config) ([]aging.Receivable, error) {
	if cfg.csvPath != "" {
		return readCSV(cfg.csvPath)
	}
	if cfg.dbURL == "" {
		return nil, fmt.Errorf("either -db or -csv is required")
	}
	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return agingrepo.NewReceivableRepository(db).ListOpen(context.Background())
}

// readCSV parses receivables from a headered CSV with columns
// id, party_id, party_name, total, paid, currency, exchange_rate,
// due_date, status.
func readCSV(path string) ([]aging.Receivable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var result []aging.Receivable
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 9 {
			return nil, fmt.Errorf("line %d: expected 9 columns, got %d", line, len(record))
		}
		total, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: total: %w", line, err)
		}
		paid, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: paid: %w", line, err)
		}
		rate, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: exchange_rate: %w", line, err)
		}
		due, err := time.Parse(dateLayout, record[7])
		if err != nil {
			return nil, fmt.Errorf("line %d: due_date: %w", line, err)
		}
		result = append(result, aging.Receivable{
			ID:           record[0],
			PartyID:      record[1],
			PartyName:    record[2],
			Total:        total,
			Paid:         paid,
			Currency:     record[5],
			ExchangeRate: rate,
			DueDate:      due,
			Status:       aging.ReceivableStatus(record[8]),
		})
	}
	return result, nil
}
