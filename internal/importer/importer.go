// Package importer loads catalog CSV exports into the products table.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/logging"
	"github.com/xRWDev/ReTech/internal/service/catalog"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads product CSV exports and inserts or updates products by slug.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *logrus.Entry
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *logrus.Entry) *CSVImporter {
	if logger == nil {
		logger = logging.Discard()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logger,
	}
}

// Result counts imported and rejected products.
type Result struct {
	Imported int
	Skipped  int
}

// Run parses CSV rows and upserts one product per row with a slug or title.
// Rows carrying only an image belong to the product above them. Rows that
// fail validation are skipped and reported in the returned error; read and
// storage errors stop the run.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result
	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current *catalog.ProductInput
		invalid []error
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		err := i.save(ctx, *current)
		current = nil
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			res.Skipped++
			invalid = append(invalid, err)
			return nil
		}
		if err != nil {
			return err
		}
		res.Imported++
		return nil
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}

		in, image, ok := parseRow(record, index)
		if !ok {
			continue
		}
		if in == nil {
			// Continuation rows (images) belong to the current product.
			if current != nil {
				current.Images = append(current.Images, image)
			}
			continue
		}
		if err := flush(); err != nil {
			return res, err
		}
		current = in
	}
	if err := flush(); err != nil {
		return res, err
	}
	return res, errors.Join(invalid...)
}

func (i *CSVImporter) save(ctx context.Context, in catalog.ProductInput) error {
	p, err := in.Product()
	if err != nil {
		i.logger.WithError(err).WithField("slug", in.Slug).Warn("skipping invalid product row")
		return fmt.Errorf("product %q: %w", in.Slug+in.Title, err)
	}
	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Slug, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// parseRow returns the product a row describes, or only an image URL for
// continuation rows. ok is false for blank rows.
func parseRow(record []string, index map[string]int) (in *catalog.ProductInput, image string, ok bool) {
	slug := pick(record, index, "slug")
	title := pick(record, index, "title")
	image = pick(record, index, "image")
	if slug == "" && title == "" {
		return nil, image, image != ""
	}

	in = &catalog.ProductInput{
		Title:        title,
		Slug:         slug,
		Category:     pick(record, index, "category"),
		Brand:        pick(record, index, "brand"),
		Model:        pick(record, index, "model"),
		Currency:     pick(record, index, "currency"),
		Condition:    domain.Condition(strings.ToUpper(pick(record, index, "condition"))),
		Storage:      pick(record, index, "storage"),
		RAM:          pick(record, index, "ram"),
		CPU:          pick(record, index, "cpu"),
		GPU:          pick(record, index, "gpu"),
		ScreenSize:   pick(record, index, "screen_size"),
		Color:        pick(record, index, "color"),
		LocationCity: pick(record, index, "city"),
		Description:  pick(record, index, "description"),
		IsAvailable:  true,
		Price:        decimal.NewFromInt(-1),
		StockCount:   atoi(pick(record, index, "stock")),
	}
	if v := pick(record, index, "price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			in.Price = d
		}
	}
	if v := pick(record, index, "old_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			in.OldPrice = &d
		}
	}
	if v := pick(record, index, "battery_health"); v != "" {
		n := atoi(v)
		in.BatteryHealth = &n
	}
	in.WarrantyMonths = atoi(pick(record, index, "warranty_months"))
	if v := pick(record, index, "available"); v != "" {
		in.IsAvailable, _ = strconv.ParseBool(v)
	}
	if image != "" {
		in.Images = []string{image}
	}
	return in, "", true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
