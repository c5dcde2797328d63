// Package input loads the domain list from a CSV file. It is deliberately
// thin: a header-keyed reader, a column-fallback rule for the domain, and
// the row filters. Loaded records are opaque to the pipeline; region, site
// flag and tier are copied through to the output unchanged.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Domain is one immutable input record.
type Domain struct {
	// Domain is the resolvable domain name, e.g. "acme.com".
	Domain string

	// Pass-through metadata, possibly empty.
	Region string
	Site   string
	Tier   string
}

// Filters narrows the loaded domain list. Zero values disable each filter.
type Filters struct {
	// Region keeps only rows whose region column equals it.
	Region string

	// Tiers keeps only rows whose tier column is in the set.
	Tiers []string

	// Site keeps only rows whose site-flag column equals it.
	Site string

	// ExcludeTier0 drops rows with tier "0".
	ExcludeTier0 bool

	// Max caps the number of loaded rows; 0 means no cap.
	Max int
}

// domainColumns is the fallback order for locating the domain value.
var domainColumns = []string{"domain", "shortname", "name", "website"}

// Load reads path and returns the filtered domain list.
// Rows without a resolvable domain are skipped; a bare name with no dot
// gets ".com" appended as a last-chance fallback.
func Load(path string, f Filters) ([]Domain, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input: open %s: %w", path, err)
	}
	defer file.Close()
	return parse(file, f)
}

func parse(r io.Reader, f Filters) ([]Domain, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("input: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var out []Domain
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("input: read row: %w", err)
		}

		d := Domain{
			Domain: resolveDomain(row, col),
			Region: field(row, col, "region"),
			Site:   field(row, col, "fh_site"),
			Tier:   field(row, col, "account_tier"),
		}
		if d.Domain == "" {
			continue
		}
		if !keep(d, f) {
			continue
		}
		out = append(out, d)
		if f.Max > 0 && len(out) >= f.Max {
			break
		}
	}
	return out, nil
}

// resolveDomain applies the column fallback order, then scans any column
// for a dotted value, and finally appends ".com" to a bare name.
func resolveDomain(row []string, col map[string]int) string {
	var name string
	for _, c := range domainColumns {
		if v := field(row, col, c); v != "" {
			name = v
			break
		}
	}
	if name == "" {
		for _, v := range row {
			if v = strings.TrimSpace(v); strings.Contains(v, ".") {
				name = v
				break
			}
		}
	}
	if name != "" && !strings.Contains(name, ".") {
		name += ".com"
	}
	return name
}

func keep(d Domain, f Filters) bool {
	if f.Region != "" && d.Region != f.Region {
		return false
	}
	if f.Site != "" && d.Site != f.Site {
		return false
	}
	if len(f.Tiers) > 0 && !containsString(f.Tiers, d.Tier) {
		return false
	}
	if f.ExcludeTier0 && d.Tier == "0" {
		return false
	}
	return true
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
