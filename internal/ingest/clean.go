// File: internal/ingest/clean.go
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/exitscope/api/schemas"
)

// Clean normalizes a raw table into canonical shape. It renames known
// alternate column spellings, trims every text cell, drops rows with a
// missing or invalid ip, deduplicates by ip keeping the first occurrence,
// coerces port and coordinates, and normalizes half-present coordinate pairs
// to absent. The input table is not modified. Clean is idempotent.
func (p *Processor) Clean(t *Table) *Table {
	out := &Table{Columns: cleanColumns(t.Columns)}

	seen := make(map[string]struct{}, len(t.Rows))
	dropped, duplicates := 0, 0

	for _, raw := range t.Rows {
		row := cleanRow(raw)

		ip := row.Get("ip")
		if !ValidIP(ip) {
			dropped++
			continue
		}
		if _, dup := seen[ip]; dup {
			duplicates++
			continue
		}
		seen[ip] = struct{}{}

		coercePort(row)
		coerceCoordinates(row)
		out.Rows = append(out.Rows, row)
	}

	if dropped > 0 || duplicates > 0 {
		p.logger.Info("cleaned dataset",
			zap.Int("kept", len(out.Rows)),
			zap.Int("invalid_ip_rows", dropped),
			zap.Int("duplicate_ip_rows", duplicates))
	}
	return out
}

// cleanColumns renames alternates and removes duplicates while preserving
// the original order.
func cleanColumns(cols []string) []string {
	out := make([]string, 0, len(cols))
	present := make(map[string]bool, len(cols))
	for _, col := range cols {
		canon := canonicalName(strings.TrimSpace(col))
		if canon == "" || present[canon] {
			continue
		}
		present[canon] = true
		out = append(out, canon)
	}
	return out
}

// cleanRow trims cells and renames keys. When an alternate spelling would
// collide with a value already present under the canonical name, the
// canonical value wins.
func cleanRow(raw Row) Row {
	row := make(Row, len(raw))
	// Canonical keys first so alias renames never clobber them.
	for key, value := range raw {
		if canonicalName(key) != key {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			row[key] = v
		}
	}
	for key, value := range raw {
		canon := canonicalName(key)
		if canon == key {
			continue
		}
		if _, exists := row[canon]; exists {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			row[canon] = v
		}
	}
	return row
}

// coercePort rewrites the port cell as a canonical integer. Non-numeric,
// zero, or out-of-range values become absent.
func coercePort(row Row) {
	v, ok := row["port"]
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	port := int(f)
	if err != nil || port < 1 || port > 65535 {
		delete(row, "port")
		return
	}
	row["port"] = strconv.Itoa(port)
}

// coerceCoordinates rewrites latitude/longitude as canonical floats and
// enforces the both-or-neither pair invariant.
func coerceCoordinates(row Row) {
	lat, latOK := parseFloatCell(row, "latitude")
	lon, lonOK := parseFloatCell(row, "longitude")

	if !latOK || !lonOK {
		delete(row, "latitude")
		delete(row, "longitude")
		return
	}
	row["latitude"] = strconv.FormatFloat(lat, 'f', -1, 64)
	row["longitude"] = strconv.FormatFloat(lon, 'f', -1, 64)
}

func parseFloatCell(row Row, key string) (float64, bool) {
	v, ok := row[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Nodes converts a cleaned table into Node entities. A row that cannot be
// converted is logged and skipped; per-record failures never abort the
// batch.
func (p *Processor) Nodes(t *Table) []schemas.Node {
	nodes := make([]schemas.Node, 0, t.Len())
	for _, row := range t.Rows {
		node, err := rowToNode(row)
		if err != nil {
			p.logger.Warn("skipping row that does not convert to a node",
				zap.String("ip", row.Get("ip")), zap.Error(err))
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func rowToNode(row Row) (schemas.Node, error) {
	ip := strings.TrimSpace(row.Get("ip"))
	if !ValidIP(ip) {
		return schemas.Node{}, fmt.Errorf("invalid ip %q", row.Get("ip"))
	}

	node := schemas.NewNode(ip)
	node.Country = row.Get("country")
	node.Region = row.Get("region")
	node.City = row.Get("city")
	node.ASN = row.Get("asn")
	node.ISP = row.Get("isp")
	node.FirstSeen = row.Get("first_seen")
	node.LastSeen = row.Get("last_seen")

	if row.Has("port") {
		port, err := strconv.Atoi(row.Get("port"))
		if err != nil {
			return schemas.Node{}, fmt.Errorf("invalid port %q: %w", row.Get("port"), err)
		}
		node.Port = port
	}

	if row.Has("latitude") && row.Has("longitude") {
		lat, err := strconv.ParseFloat(row.Get("latitude"), 64)
		if err != nil {
			return schemas.Node{}, fmt.Errorf("invalid latitude %q: %w", row.Get("latitude"), err)
		}
		lon, err := strconv.ParseFloat(row.Get("longitude"), 64)
		if err != nil {
			return schemas.Node{}, fmt.Errorf("invalid longitude %q: %w", row.Get("longitude"), err)
		}
		node.SetCoords(lat, lon)
	}

	return node, nil
}
