package input

import (
	"strings"
	"testing"
)

const sitesCSV = `domain,region,fh_site,account_tier
acme.com,emea,yes,2
globex.com,amer,no,0
initech.com,emea,yes,1
,emea,yes,3
hooli,amer,no,2
`

func load(t *testing.T, body string, f Filters) []Domain {
	t.Helper()
	out, err := parse(strings.NewReader(body), f)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	return out
}

func TestLoad_PassThroughMetadata(t *testing.T) {
	out := load(t, sitesCSV, Filters{})

	if len(out) != 4 {
		t.Fatalf("loaded %d domains, want 4 (empty-domain row skipped)", len(out))
	}
	want := Domain{Domain: "acme.com", Region: "emea", Site: "yes", Tier: "2"}
	if out[0] != want {
		t.Errorf("out[0] = %+v, want %+v", out[0], want)
	}
	// Bare name gets the .com fallback.
	if out[3].Domain != "hooli.com" {
		t.Errorf("bare name resolved to %q, want hooli.com", out[3].Domain)
	}
}

func TestLoad_Filters(t *testing.T) {
	tests := []struct {
		name string
		f    Filters
		want []string
	}{
		{"region", Filters{Region: "emea"}, []string{"acme.com", "initech.com"}},
		{"site", Filters{Site: "no"}, []string{"globex.com", "hooli.com"}},
		{"tiers", Filters{Tiers: []string{"1", "2"}}, []string{"acme.com", "initech.com", "hooli.com"}},
		{"exclude tier 0", Filters{ExcludeTier0: true}, []string{"acme.com", "initech.com", "hooli.com"}},
		{"max cap", Filters{Max: 2}, []string{"acme.com", "globex.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := load(t, sitesCSV, tt.f)
			if len(out) != len(tt.want) {
				t.Fatalf("loaded %d domains, want %d", len(out), len(tt.want))
			}
			for i, w := range tt.want {
				if out[i].Domain != w {
					t.Errorf("out[%d] = %q, want %q", i, out[i].Domain, w)
				}
			}
		})
	}
}

func TestLoad_ColumnFallback(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"shortname column", "shortname,region\nacme.com,emea\n", "acme.com"},
		{"website column", "website,region\nhttps.example.org,emea\n", "https.example.org"},
		{"any dotted value", "id,notes\n17,see acme.io\n", "see acme.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := load(t, tt.body, Filters{})
			if len(out) != 1 || out[0].Domain != tt.want {
				t.Errorf("parse() = %+v, want one domain %q", out, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("does/not/exist.csv", Filters{}); err == nil {
		t.Fatal("Load() error = nil, want open failure")
	}
}
