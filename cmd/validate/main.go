// Command validate checks analysis inputs before a run: severity band tables
// (named or YAML) and, optionally, a local STAC ItemCollection and the band
// files its assets point at.
//
// Usage:
//
//	go run ./cmd/validate -bands config/severity.yaml
//	go run ./cmd/validate -table usgs -catalog data/mock/catalog.json
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/dragonfly/internal/adapter/stac"
	"github.com/couchcryptid/dragonfly/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	bandsFile := flag.String("bands", "", "YAML severity band table to check")
	table := flag.String("table", "", "named severity table to check (usgs, split-moderate)")
	catalog := flag.String("catalog", "", "local STAC ItemCollection to check")
	bands := flag.String("assets", "B08,B12", "comma-separated asset keys every catalog item must carry")
	flag.Parse()

	if *bandsFile == "" && *table == "" && *catalog == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*bandsFile, *table, *catalog, strings.Split(*bands, ",")))
}

func run(bandsFile, table, catalog string, assetKeys []string) int {
	fmt.Println("=== Analysis Input Validation ===")
	fmt.Println()

	var phases []*phase
	if table != "" {
		phases = append(phases, validateNamedTable(table))
	}
	if bandsFile != "" {
		phases = append(phases, validateBandFile(bandsFile))
	}
	if catalog != "" {
		phases = append(phases, validateCatalog(catalog, assetKeys))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() && len(p.notes) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Printf("  note: %s\n", n)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateNamedTable(name string) *phase {
	p := &phase{name: "Severity table " + name}
	t, err := domain.BandTableByName(name)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	checkTable(p, t)
	return p
}

func validateBandFile(path string) *phase {
	p := &phase{name: "Severity band file"}
	t, err := domain.LoadBandTableFile(path)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	checkTable(p, t)
	return p
}

// checkTable reports interval problems and duplicate labels. Open ends are
// noted but allowed: values outside the table are left unclassified.
func checkTable(p *phase, t domain.BandTable) {
	for _, issue := range t.Check() {
		p.errorf("%s", issue)
	}
	if len(t) == 0 {
		return
	}
	if lo := t[0].Lower; !math.IsInf(lo, -1) {
		p.notef("values below %.3f fall outside every band", lo)
	}
	if hi := t[len(t)-1].Upper; !math.IsInf(hi, 1) {
		p.notef("values at or above %.3f fall outside every band", hi)
	}
	seen := map[string]bool{}
	for _, label := range t.Labels() {
		if seen[label] {
			p.errorf("duplicate band label %q", label)
		}
		seen[label] = true
	}
}

func validateCatalog(path string, assetKeys []string) *phase {
	p := &phase{name: "Catalog " + path}
	fc, err := stac.NewFileCatalog(path)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	items, err := fc.Search(context.Background(), domain.SearchQuery{
		Window:        domain.TimeWindow{End: domain.Now().AddDate(100, 0, 0)},
		MaxCloudCover: math.Inf(1),
	})
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if len(items) == 0 {
		p.errorf("catalog has no items")
	}
	for _, it := range items {
		if it.Datetime.IsZero() {
			p.errorf("item %s: no datetime", it.ID)
		}
		if it.CloudCover < 0 || it.CloudCover > 100 {
			p.errorf("item %s: cloud cover %.1f outside [0, 100]", it.ID, it.CloudCover)
		}
		for _, key := range assetKeys {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			a, err := it.AssetFor(key)
			if err != nil {
				p.errorf("%v", err)
				continue
			}
			if strings.Contains(a.Href, "://") {
				continue
			}
			if _, err := os.Stat(a.Href); err != nil {
				p.errorf("item %s asset %s: %v", it.ID, key, err)
			}
		}
	}
	return p
}
