package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"cstore-dashboard/internal/models"
	"github.com/parquet-go/parquet-go"
	"golang.org/x/sync/errgroup"
)

const maxReaders = 8

// Parquet row shapes of the raw source files. The enriched SalesRecord is
// produced by joining these on GTIN, TRANSACTION_SET_ID and STORE_ID.
type itemRow struct {
	TransactionItemID string    `parquet:"TRANSACTION_ITEM_ID"`
	TransactionSetID  string    `parquet:"TRANSACTION_SET_ID"`
	DateTime          time.Time `parquet:"DATE_TIME"`
	StoreID           string    `parquet:"STORE_ID"`
	GTIN              string    `parquet:"GTIN"`
	POSDescription    string    `parquet:"POS_DESCRIPTION"`
	UnitPrice         float64   `parquet:"UNIT_PRICE"`
	UnitQuantity      float64   `parquet:"UNIT_QUANTITY"`
}

type catalogRow struct {
	GTIN            string `parquet:"GTIN"`
	Category        string `parquet:"CATEGORY"`
	NonscanCategory string `parquet:"NONSCAN_CATEGORY"`
	Brand           string `parquet:"BRAND"`
}

type paymentRow struct {
	TransactionSetID string `parquet:"TRANSACTION_SET_ID"`
	PaymentType      string `parquet:"PAYMENT_TYPE"`
}

type storeRow struct {
	StoreID   int64  `parquet:"STORE_ID"`
	StoreName string `parquet:"STORE_NAME"`
	City      string `parquet:"CITY"`
	State     string `parquet:"STATE"`
}

// Snapshot is one fully loaded dataset. It is immutable after Load returns
// it; views read it without locking.
type Snapshot struct {
	Records    []models.SalesRecord
	Stores     []models.Store
	SourcePath string
	LoadedAt   time.Time
	Skipped    int64
	MinDate    time.Time
	MaxDate    time.Time
}

// Loader is a process-wide read-through cache with a single entry, keyed by
// the source path. The dataset never changes under a running process, so a
// path hit returns the held snapshot without touching the files again.
type Loader struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	logger   *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		snapshot: &Snapshot{},
		logger:   logger,
	}
}

// Snapshot returns the currently held dataset. Before any successful Load
// it is empty, which every view treats as a valid (empty) input.
func (l *Loader) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// SetRecords installs an in-memory dataset directly. Used by tests and by
// anything that builds records without files.
func (l *Loader) SetRecords(records []models.SalesRecord, stores []models.Store) {
	snap := buildSnapshot(records, stores, "memory")
	l.mu.Lock()
	l.snapshot = snap
	l.mu.Unlock()
}

// Load reads the dataset rooted at sourcePath. A directory is read as the
// four-file parquet layout; anything else as a flat enriched CSV. Loading
// the same path twice returns the cached snapshot.
func (l *Loader) Load(ctx context.Context, sourcePath string) (*Snapshot, error) {
	l.mu.RLock()
	cached := l.snapshot
	l.mu.RUnlock()
	if cached != nil && cached.SourcePath == sourcePath && len(cached.Records) > 0 {
		return cached, nil
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("stat dataset source: %w", err)
	}

	start := time.Now()
	var snap *Snapshot
	if info.IsDir() {
		snap, err = l.loadParquet(ctx, sourcePath)
	} else {
		snap, err = l.loadCSV(ctx, sourcePath)
	}
	if err != nil {
		return nil, err
	}
	if len(snap.Records) == 0 {
		return nil, fmt.Errorf("no valid records in %s", sourcePath)
	}

	l.mu.Lock()
	l.snapshot = snap
	l.mu.Unlock()

	l.logger.Info("dataset loaded",
		"source", sourcePath,
		"records", len(snap.Records),
		"stores", len(snap.Stores),
		"skipped", snap.Skipped,
		"duration", time.Since(start),
	)
	return snap, nil
}

func (l *Loader) loadParquet(ctx context.Context, dir string) (*Snapshot, error) {
	catalog, err := parquet.ReadFile[catalogRow](filepath.Join(dir, "cstore_master_ctin.parquet"))
	if err != nil {
		return nil, fmt.Errorf("read master catalog: %w", err)
	}
	payments, err := parquet.ReadFile[paymentRow](filepath.Join(dir, "cstore_payments.parquet"))
	if err != nil {
		return nil, fmt.Errorf("read payments: %w", err)
	}
	storeRows, err := parquet.ReadFile[storeRow](filepath.Join(dir, "cstore_stores.parquet"))
	if err != nil {
		return nil, fmt.Errorf("read stores: %w", err)
	}

	catalogByGTIN := make(map[string]catalogRow, len(catalog))
	for _, c := range catalog {
		catalogByGTIN[c.GTIN] = c
	}
	paymentBySet := make(map[string]string, len(payments))
	for _, p := range payments {
		paymentBySet[p.TransactionSetID] = p.PaymentType
	}
	storeByID := make(map[string]models.Store, len(storeRows))
	stores := make([]models.Store, 0, len(storeRows))
	for _, s := range storeRows {
		store := models.Store{
			StoreID:   strconv.FormatInt(s.StoreID, 10),
			StoreName: s.StoreName,
			City:      s.City,
			State:     s.State,
		}
		storeByID[store.StoreID] = store
		stores = append(stores, store)
	}
	slices.SortFunc(stores, func(a, b models.Store) int {
		return strings.Compare(a.StoreName, b.StoreName)
	})

	itemFiles, err := filepath.Glob(filepath.Join(dir, "transaction_items", "*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("glob transaction items: %w", err)
	}
	if len(itemFiles) == 0 {
		return nil, fmt.Errorf("no transaction item files under %s", dir)
	}

	chunks := make([][]itemRow, len(itemFiles))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxReaders)
	for i, file := range itemFiles {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rows, err := parquet.ReadFile[itemRow](file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			chunks[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []models.SalesRecord
	for _, chunk := range chunks {
		for _, item := range chunk {
			records = append(records, enrich(item, catalogByGTIN, paymentBySet, storeByID))
		}
	}

	return buildSnapshot(records, stores, dir), nil
}

func enrich(item itemRow, catalog map[string]catalogRow, payments map[string]string, stores map[string]models.Store) models.SalesRecord {
	rec := models.SalesRecord{
		TransactionItemID: item.TransactionItemID,
		TransactionSetID:  item.TransactionSetID,
		DateTime:          item.DateTime,
		StoreID:           item.StoreID,
		GTIN:              item.GTIN,
		Product:           item.POSDescription,
		UnitPrice:         item.UnitPrice,
		Quantity:          item.UnitQuantity,
		TotalSales:        item.UnitPrice * item.UnitQuantity,
	}
	rec.Date = item.DateTime.Truncate(24 * time.Hour)
	rec.Year, rec.Week = rec.Date.ISOWeek()

	if c, ok := catalog[item.GTIN]; ok {
		rec.Category = c.Category
		rec.NonscanCategory = c.NonscanCategory
		rec.Brand = c.Brand
	}
	rec.PaymentType = payments[item.TransactionSetID]
	if s, ok := stores[item.StoreID]; ok {
		rec.StoreName = s.StoreName
		rec.City = s.City
		rec.State = s.State
	}
	return rec
}

// CSV column names of the flat fallback format. The file carries the
// already-enriched schema, one line per transaction item.
var csvColumns = []string{
	"TRANSACTION_ITEM_ID", "TRANSACTION_SET_ID", "DATE_TIME",
	"STORE_ID", "STORE_NAME", "CITY", "STATE",
	"GTIN", "POS_DESCRIPTION", "CATEGORY", "NONSCAN_CATEGORY", "BRAND",
	"UNIT_PRICE", "UNIT_QUANTITY", "PAYMENT_TYPE",
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func (l *Loader) loadCSV(ctx context.Context, filename string) (*Snapshot, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"DATE_TIME", "POS_DESCRIPTION", "UNIT_PRICE", "UNIT_QUANTITY"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %s", required)
		}
	}

	var records []models.SalesRecord
	storeSeen := make(map[string]models.Store)
	var skipped int64

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		rec, err := parseCSVRecord(row, index)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
		if rec.StoreID != "" {
			if _, ok := storeSeen[rec.StoreID]; !ok {
				storeSeen[rec.StoreID] = models.Store{
					StoreID:   rec.StoreID,
					StoreName: rec.StoreName,
					City:      rec.City,
					State:     rec.State,
				}
			}
		}
	}

	stores := make([]models.Store, 0, len(storeSeen))
	for _, s := range storeSeen {
		stores = append(stores, s)
	}
	slices.SortFunc(stores, func(a, b models.Store) int {
		return strings.Compare(a.StoreName, b.StoreName)
	})

	snap := buildSnapshot(records, stores, filename)
	snap.Skipped = skipped
	return snap, nil
}

func parseCSVRecord(row []string, index map[string]int) (models.SalesRecord, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var dateTime time.Time
	var err error
	raw := field("DATE_TIME")
	for _, layout := range dateTimeLayouts {
		dateTime, err = time.Parse(layout, raw)
		if err == nil {
			break
		}
	}
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("parse DATE_TIME %q: %w", raw, err)
	}

	price, err := strconv.ParseFloat(field("UNIT_PRICE"), 64)
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("parse UNIT_PRICE: %w", err)
	}
	quantity, err := strconv.ParseFloat(field("UNIT_QUANTITY"), 64)
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("parse UNIT_QUANTITY: %w", err)
	}

	rec := models.SalesRecord{
		TransactionItemID: field("TRANSACTION_ITEM_ID"),
		TransactionSetID:  field("TRANSACTION_SET_ID"),
		DateTime:          dateTime,
		StoreID:           field("STORE_ID"),
		StoreName:         field("STORE_NAME"),
		City:              field("CITY"),
		State:             field("STATE"),
		GTIN:              field("GTIN"),
		Product:           field("POS_DESCRIPTION"),
		Category:          field("CATEGORY"),
		NonscanCategory:   field("NONSCAN_CATEGORY"),
		Brand:             field("BRAND"),
		UnitPrice:         price,
		Quantity:          quantity,
		TotalSales:        price * quantity,
		PaymentType:       field("PAYMENT_TYPE"),
	}
	rec.Date = dateTime.Truncate(24 * time.Hour)
	rec.Year, rec.Week = rec.Date.ISOWeek()
	return rec, nil
}

func buildSnapshot(records []models.SalesRecord, stores []models.Store, source string) *Snapshot {
	snap := &Snapshot{
		Records:    records,
		Stores:     stores,
		SourcePath: source,
		LoadedAt:   time.Now(),
	}
	for _, r := range records {
		if snap.MinDate.IsZero() || r.Date.Before(snap.MinDate) {
			snap.MinDate = r.Date
		}
		if snap.MaxDate.IsZero() || r.Date.After(snap.MaxDate) {
			snap.MaxDate = r.Date
		}
	}
	return snap
}
