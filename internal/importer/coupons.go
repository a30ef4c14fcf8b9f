package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"empress-storefront/internal/domain"
)

type CouponWriter interface {
	Upsert(ctx context.Context, c domain.Coupon) error
}

// CouponImporter reads a coupon CSV export (code,type,discount,minOrder) and
// upserts every row into the local coupon catalogue.
type CouponImporter struct {
	reader  *csv.Reader
	coupons CouponWriter
}

func NewCouponImporter(r io.Reader, coupons CouponWriter) *CouponImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CouponImporter{reader: csvr, coupons: coupons}
}

// Run parses CSV rows and upserts coupons. Blank rows are skipped.
func (i *CouponImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["code"]; !ok {
		return 0, errors.New("missing code column")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		c, err := parseCoupon(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if c == nil {
			continue
		}
		if err := i.coupons.Upsert(ctx, *c); err != nil {
			return imported, fmt.Errorf("upsert coupon %q: %w", c.Code, err)
		}
		imported++
	}
	return imported, nil
}

func parseCoupon(record []string, index map[string]int) (*domain.Coupon, error) {
	code := strings.ToUpper(pick(record, index, "code"))
	if code == "" {
		return nil, nil
	}
	kind := domain.CouponType(strings.ToLower(pick(record, index, "type")))
	if kind != domain.CouponPercentage && kind != domain.CouponFixed {
		return nil, fmt.Errorf("coupon %s: unknown type %q", code, kind)
	}
	discount, err := parseAmount(pick(record, index, "discount"))
	if err != nil || discount <= 0 {
		return nil, fmt.Errorf("coupon %s: invalid discount", code)
	}
	if kind == domain.CouponPercentage && discount > 100 {
		return nil, fmt.Errorf("coupon %s: percentage above 100", code)
	}
	minOrder, err := parseAmount(pick(record, index, "minOrder"))
	if err != nil || minOrder < 0 {
		return nil, fmt.Errorf("coupon %s: invalid minOrder", code)
	}
	return &domain.Coupon{Code: code, Type: kind, Discount: discount, MinOrder: minOrder}, nil
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
