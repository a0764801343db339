// Package trials runs the per-sponsor clinical-trial flow: one SQLite file
// and one index per sponsor.
package trials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ziadkadry99/trialrag/internal/config"
)

// ErrInvalidIdentifier is returned when a table or column name is not a
// plain SQL identifier.
var ErrInvalidIdentifier = errors.New("invalid SQL identifier")

// BuildQuery returns the SELECT run against a sponsor table. The row limit
// is not part of the text; bind it as the single parameter.
func BuildQuery(table, orderBy string, columns []string) (string, error) {
	for _, id := range append([]string{table, orderBy}, columns...) {
		if !config.IsIdentifier(id) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
	}

	cols := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = `"` + c + `"`
		}
		cols = strings.Join(quoted, ", ")
	}
	return fmt.Sprintf(`SELECT %s FROM "%s" ORDER BY "%s" ASC LIMIT ?`, cols, table, orderBy), nil
}
