package trials

import (
	"fmt"
	"path/filepath"

	"github.com/ziadkadry99/trialrag/internal/config"
)

// Sponsor is one entry of the sponsor batch.
type Sponsor struct {
	Name         string
	Table        string
	DatabasePath string
	IndexDir     string
}

// Sponsors lists the configured sponsors in order. The index of sponsor S
// lives in <index root>/_S.
func Sponsors(cfg config.Config) ([]Sponsor, error) {
	t := cfg.Trials
	out := make([]Sponsor, 0, len(t.Sponsors))
	for _, name := range t.Sponsors {
		table := t.TablePrefix + name
		if !config.IsIdentifier(table) {
			return nil, fmt.Errorf("%w: sponsor %q", ErrInvalidIdentifier, name)
		}
		out = append(out, Sponsor{
			Name:         name,
			Table:        table,
			DatabasePath: filepath.Join(t.SQLiteDir, fmt.Sprintf(t.FilePattern, name)),
			IndexDir:     filepath.Join(t.IndexRootDir(), "_"+name),
		})
	}
	return out, nil
}

// Select returns the sponsors named in names, in the order given. An
// empty names selects every sponsor.
func Select(all []Sponsor, names []string) ([]Sponsor, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]Sponsor, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
	out := make([]Sponsor, 0, len(names))
	for _, n := range names {
		s, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("sponsor %q is not configured", n)
		}
		out = append(out, s)
	}
	return out, nil
}
