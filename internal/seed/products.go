package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopkeep/m/internal/inventory"
)

// LoadProducts imports a catalog CSV with the header
// name,sku,quantity,purchase,wholesale,retail. Rows whose sku or name is
// already in the catalog are skipped. It returns how many products were
// created.
func LoadProducts(ctx context.Context, svc *inventory.Service, csvPath string, log *zap.Logger) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("open product catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return loadProducts(ctx, svc, file, log)
}

func loadProducts(ctx context.Context, svc *inventory.Service, src io.Reader, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read product header: %w", err)
	}

	existing, err := svc.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing)*2)
	for _, p := range existing {
		known["name:"+strings.ToLower(p.Name)] = true
		if p.SKU != nil {
			known["sku:"+*p.SKU] = true
		}
	}

	rows := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn("unable to read product row", zap.Int("line", line), zap.Error(err))
			continue
		}
		in, err := parseProductRow(record)
		if err != nil {
			log.Warn("skipping product row", zap.Int("line", line), zap.Error(err))
			continue
		}
		if known["name:"+strings.ToLower(in.Name)] || (in.SKU != nil && known["sku:"+*in.SKU]) {
			continue
		}
		p, err := svc.CreateProduct(ctx, in)
		if err != nil {
			log.Warn("unable to insert product", zap.String("name", in.Name), zap.Error(err))
			continue
		}
		known["name:"+strings.ToLower(p.Name)] = true
		if p.SKU != nil {
			known["sku:"+*p.SKU] = true
		}
		rows++
	}
	log.Info("seeded product catalog", zap.Int("rows", rows))
	return rows, nil
}

func parseProductRow(record []string) (inventory.ProductInput, error) {
	if len(record) < 6 {
		return inventory.ProductInput{}, fmt.Errorf("expected 6 columns, got %d", len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	in := inventory.ProductInput{Name: record[0]}
	if in.Name == "" {
		return in, errors.New("name is empty")
	}
	if record[1] != "" {
		sku := record[1]
		in.SKU = &sku
	}
	qty, err := strconv.ParseInt(record[2], 10, 64)
	if err != nil {
		return in, fmt.Errorf("quantity %q: %w", record[2], err)
	}
	in.Quantity = qty
	prices := []*decimal.Decimal{&in.PurchasePrice, &in.WholesalePrice, &in.RetailPrice}
	for i, dst := range prices {
		raw := record[3+i]
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return in, fmt.Errorf("price %q: %w", raw, err)
		}
		*dst = v
	}
	return in, nil
}
