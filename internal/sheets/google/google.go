package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pocketbot/internal/cache"
	"pocketbot/internal/core"
	"pocketbot/internal/log"
	ports "pocketbot/internal/sheets"
)

const (
	DefaultSheetName = "Ledger"

	idColumnTTL = 30 * time.Second
	lastColumn  = "G"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID string
	// SheetName is the tab base name; the transaction year is prefixed.
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	Location        *time.Location
	Logger          *log.Logger
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	loc           *time.Location
	logger        *log.Logger

	// writeMu serializes writes; row numbers shift on delete.
	writeMu  sync.Mutex
	idCols   *cache.LRU[[]string]
	sheetMu  sync.Mutex
	sheetIDs map[string]int64
}

var _ ports.Ledger = (*Client)(nil)

// New creates a mirror client. Without extra client options it
// authenticates with the service account from cfg.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = DefaultSheetName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	if len(opts) == 0 {
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, fmt.Errorf("sheets service: %w", err)
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets mirror ready", "spreadsheet_id", spreadsheetID, "sheet", base)

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     base,
		loc:           loc,
		logger:        logger,
		idCols:        cache.NewLRU[[]string](16, idColumnTTL),
		sheetIDs:      make(map[string]int64),
	}, nil
}

// loadCredentials reads the service account key from cfg, falling back to
// GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	file := strings.TrimSpace(cfg.CredentialsFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

func (c *Client) sheetFor(tx core.Transaction) string {
	year := tx.OccurredAt.In(c.loc).Year()
	if tx.OccurredAt.IsZero() {
		year = time.Now().In(c.loc).Year()
	}
	return yearPrefixedName(c.sheetBase, year)
}

// AppendTransaction mirrors tx unless its id is already in the sheet.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		return "", ports.ErrMissingID
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	sheet := c.sheetFor(tx)
	if _, err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	ids, err := c.idColumn(ctx, sheet)
	if err != nil {
		return "", err
	}
	if row := findRow(ids, tx.ID); row > 0 {
		return rowRef(sheet, row), nil
	}

	values := [][]any{ports.Row(tx, c.loc)}
	if len(ids) == 0 {
		header := make([]any, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		values = append([][]any{header}, values...)
	}

	rng := fmt.Sprintf("%s!A:%s", quoteSheet(sheet), lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	c.idCols.Delete(sheet)
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}

	ref := rowRef(sheet, len(ids)+len(values))
	if resp != nil && resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Mirrored transaction", log.FieldTxID, tx.ID, "sheets_ref", ref)
	return ref, nil
}

// DeleteTransaction removes the row holding tx.ID, if any.
func (c *Client) DeleteTransaction(ctx context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		return ports.ErrMissingID
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	sheet := c.sheetFor(tx)
	sheetID, ok, err := c.lookupSheet(ctx, sheet)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	ids, err := c.idColumn(ctx, sheet)
	if err != nil {
		return err
	}
	row := findRow(ids, tx.ID)
	if row == 0 {
		c.logger.DebugContext(ctx, "Transaction not mirrored, nothing to delete", log.FieldTxID, tx.ID)
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row - 1),
			EndIndex:   int64(row),
		}},
	}}}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	c.idCols.Delete(sheet)
	if err != nil {
		return fmt.Errorf("delete row %d of %s: %w", row, sheet, err)
	}
	c.logger.InfoContext(ctx, "Removed mirrored transaction", log.FieldTxID, tx.ID, "row", row)
	return nil
}

func (c *Client) idColumn(ctx context.Context, sheet string) ([]string, error) {
	if ids, ok := c.idCols.Get(sheet); ok {
		return ids, nil
	}
	rng := quoteSheet(sheet) + "!A:A"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := firstColumn(resp.Values)
	c.idCols.Set(sheet, ids)
	return ids, nil
}

// lookupSheet returns the numeric id of the tab titled title.
func (c *Client) lookupSheet(ctx context.Context, title string) (int64, bool, error) {
	c.sheetMu.Lock()
	defer c.sheetMu.Unlock()

	if id, ok := c.sheetIDs[title]; ok {
		return id, true, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[title]
	return id, ok, nil
}

// ensureSheet creates the tab for a new year on first use.
func (c *Client) ensureSheet(ctx context.Context, title string) (int64, error) {
	id, ok, err := c.lookupSheet(ctx, title)
	if err != nil || ok {
		return id, err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %s: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %s: empty reply", title)
	}
	id = resp.Replies[0].AddSheet.Properties.SheetId

	c.sheetMu.Lock()
	c.sheetIDs[title] = id
	c.sheetMu.Unlock()
	c.logger.InfoContext(ctx, "Created mirror sheet", "sheet", title)
	return id, nil
}
