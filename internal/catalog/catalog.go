// Package catalog loads the methylome-name catalog: the JSON document
// mapping genomes to the methylomes available for them, and its inverse,
// used to validate client-supplied names and route each one to the correct
// CpG index at query build time.
package catalog

import (
	"context"
	"encoding/json"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// Catalog is the methylome-name catalog, held in memory as the mutual
// inverse of a genome-to-methylomes map.
type Catalog struct {
	GenomeToMethylomes map[string]map[string]struct{} `json:"-"`
	MethylomeToGenome  map[string]string               `json:"-"`
}

// jsonDoc is the on-disk shape: genome name to a sorted list of methylome
// names. The inverse map is derived, not stored.
type jsonDoc struct {
	GenomeToMethylomes map[string][]string `json:"genome_to_methylomes"`
}

// Load reads the catalog JSON document at path and derives the inverse map.
func Load(ctx context.Context, path string) (*Catalog, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "catalog: opening", path)
	}
	defer file.CloseAndReport(ctx, in, &err)

	var doc jsonDoc
	if err := json.NewDecoder(in.Reader(ctx)).Decode(&doc); err != nil {
		return nil, errors.E(err, "catalog: decoding", path)
	}
	return FromGenomeMap(doc.GenomeToMethylomes)
}

// FromGenomeMap builds a Catalog from a genome-to-methylome-names map,
// validating and deriving the inverse.
func FromGenomeMap(m map[string][]string) (*Catalog, error) {
	c := &Catalog{
		GenomeToMethylomes: make(map[string]map[string]struct{}, len(m)),
		MethylomeToGenome:  make(map[string]string),
	}
	for genome, names := range m {
		set := make(map[string]struct{}, len(names))
		for _, name := range names {
			if existing, ok := c.MethylomeToGenome[name]; ok && existing != genome {
				return nil, errors.Errorf("catalog: methylome %q listed under both %q and %q", name, existing, genome)
			}
			set[name] = struct{}{}
			c.MethylomeToGenome[name] = genome
		}
		c.GenomeToMethylomes[genome] = set
	}
	return c, nil
}

// GenomeFor returns the assembly a methylome name belongs to, or
// ok=false if name is not in the catalog.
func (c *Catalog) GenomeFor(name string) (genome string, ok bool) {
	genome, ok = c.MethylomeToGenome[name]
	return
}

// Validate reports whether every name in names is present in the catalog.
// It returns the first unknown name found, or ok=true if all resolve.
func (c *Catalog) Validate(names []string) (unknown string, ok bool) {
	for _, n := range names {
		if _, present := c.MethylomeToGenome[n]; !present {
			return n, false
		}
	}
	return "", true
}

// NGenomes returns the number of genomes in the catalog (|genome_to_methylomes|).
func (c *Catalog) NGenomes() int { return len(c.GenomeToMethylomes) }

// NMethylomes returns the number of methylomes in the catalog
// (|methylome_to_genome|), which must equal the sum of each genome's set
// size.
func (c *Catalog) NMethylomes() int { return len(c.MethylomeToGenome) }
