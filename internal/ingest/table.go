// File: internal/ingest/table.go
package ingest

// Row is one raw record: cell values keyed by column name. Absent cells have
// no key; callers treat a missing key and an empty string the same way.
type Row map[string]string

// Table is an ordered collection of rows plus the column order observed in
// the input. Order is preserved through cleaning so "first occurrence wins"
// is well defined.
type Table struct {
	Columns []string
	Rows    []Row
}

// Get returns the cell value for col, or "" when absent.
func (r Row) Get(col string) string {
	return r[col]
}

// Has reports whether the row carries a non-empty value for col.
func (r Row) Has(col string) bool {
	return r[col] != ""
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table's header names col.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// canonicalColumns is the preferred header order for tables assembled from
// unordered sources (JSON objects) and for CSV export.
var canonicalColumns = []string{
	"ip", "port", "country", "region", "city", "asn", "isp",
	"first_seen", "last_seen", "latitude", "longitude",
}

// columnAliases maps known alternate column spellings onto canonical names.
var columnAliases = map[string]string{
	"IP":         "ip",
	"Port":       "port",
	"Country":    "country",
	"Region":     "region",
	"City":       "city",
	"ASN":        "asn",
	"ISP":        "isp",
	"First Seen": "first_seen",
	"Last Seen":  "last_seen",
	"Latitude":   "latitude",
	"Longitude":  "longitude",
}

func canonicalName(col string) string {
	if canon, ok := columnAliases[col]; ok {
		return canon
	}
	return col
}
