package db

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavour used by the stores.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Placeholders returns n bind parameters starting at position from.
func (d Dialect) Placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		if d == Postgres {
			ph[i] = fmt.Sprintf("$%d", from+i)
		} else {
			ph[i] = "?"
		}
	}
	return strings.Join(ph, ",")
}
