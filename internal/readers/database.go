package readers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/trialrag/internal/db"
	"github.com/ziadkadry99/trialrag/internal/document"
	"github.com/ziadkadry99/trialrag/internal/logging"
)

// Row metadata keys set by DatabaseReader.
const (
	MetaSponsor = "sponsor"
	MetaTable   = "table"
)

// DatabaseReader runs one query against a SQLite file and returns one
// Document per row.
type DatabaseReader struct {
	Path string
	// Query is run as-is with Args bound as parameters.
	Query string
	Args  []any
	// Sponsor, Table and KeyColumn only label the documents.
	Sponsor   string
	Table     string
	KeyColumn string
	Logger    *zap.Logger
}

// Fingerprint identifies the database file and query without opening it.
func (r *DatabaseReader) Fingerprint(ctx context.Context) (string, error) {
	st, err := os.Stat(r.Path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", r.Path, err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%d\x00%s\x00%s\x00", st.Size(), st.ModTime().UnixNano(), r.Table, r.Query)
	for _, a := range r.Args {
		fmt.Fprintf(h, "%v\x00", a)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load runs the query and renders every row as "col: val, col: val, ...".
func (r *DatabaseReader) Load(ctx context.Context) ([]*document.Document, error) {
	log := logging.OrNop(r.Logger)

	d, err := db.OpenReadOnly(r.Path)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	if r.Table != "" {
		ok, err := d.HasTable(ctx, r.Table)
		if err != nil {
			return nil, err
		}
		if !ok {
			tables, _ := d.Tables(ctx)
			return nil, fmt.Errorf("%s has no table %q (tables: %s)", r.Path, r.Table, strings.Join(tables, ", "))
		}
	}

	rows, err := d.QueryContext(ctx, r.Query, r.Args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", r.Path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var docs []*document.Document
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(docs)+1, err)
		}

		parts := make([]string, len(cols))
		meta := map[string]string{}
		if r.Sponsor != "" {
			meta[MetaSponsor] = r.Sponsor
		}
		if r.Table != "" {
			meta[MetaTable] = r.Table
		}
		for i, col := range cols {
			val := formatValue(values[i])
			parts[i] = col + ": " + val
			if col == r.KeyColumn {
				meta[col] = val
			}
		}
		docs = append(docs, document.New(strings.Join(parts, ", "), meta))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows from %s: %w", r.Path, err)
	}

	log.Debug("read database rows", zap.String("db", r.Path), zap.Int("rows", len(docs)))
	return docs, nil
}

// formatValue renders a scanned column value; NULL becomes "None".
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(time.DateTime)
	default:
		return fmt.Sprint(x)
	}
}
