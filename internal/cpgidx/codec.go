package cpgidx

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"io/ioutil"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
)

// cpgIdxMagic tags the binary .cpg_idx file, mirroring the .gbai magic
// sequence used by encoding/bam's GIndex: "CPGI" followed by a version
// byte and 9 bytes of padding, so corrupted or foreign files are rejected
// before a doomed parse.
var cpgIdxMagic = []byte{'C', 'P', 'G', 'I', 0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0}

// Metadata is the JSON-facing projection of an Index: everything needed to
// validate a methylome against it and to reconstruct the Index given the
// sibling .cpg_idx binary file.
type Metadata struct {
	Assembly    string   `json:"assembly"`
	Chromosomes []Chrom  `json:"chromosomes"`
	ChromOffset []uint32 `json:"chrom_offset"`
	NCpGs       uint32   `json:"n_cpgs"`
	IndexHash   uint64   `json:"index_hash"`
}

// MetadataOf returns the JSON-facing projection of idx.
func MetadataOf(idx *Index) Metadata {
	return Metadata{
		Assembly:    idx.assembly,
		Chromosomes: append([]Chrom(nil), idx.chroms...),
		ChromOffset: append([]uint32(nil), idx.chromOffset...),
		NCpGs:       idx.nCpGs,
		IndexHash:   idx.hash,
	}
}

// SaveMetadata writes meta as JSON to path.
func SaveMetadata(ctx context.Context, path string, meta Metadata) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "cpgidx: creating metadata file", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	enc := json.NewEncoder(out.Writer(ctx))
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// LoadMetadata reads the JSON metadata sibling of a .cpg_idx file.
func LoadMetadata(ctx context.Context, path string) (Metadata, error) {
	var meta Metadata
	in, err := file.Open(ctx, path)
	if err != nil {
		return meta, errors.E(err, "cpgidx: opening metadata file", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if err := json.NewDecoder(in.Reader(ctx)).Decode(&meta); err != nil {
		return meta, errors.E(err, "cpgidx: decoding metadata file", path)
	}
	return meta, nil
}

// SaveIndex writes idx's CpG positions to the binary .cpg_idx file at path:
// a magic header followed by a gzip stream of, for each chromosome in
// order, a little-endian u32 count followed by that many little-endian u32
// positions.
func SaveIndex(ctx context.Context, path string, idx *Index) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "cpgidx: creating index file", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := out.Writer(ctx)
	if _, err := w.Write(cpgIdxMagic); err != nil {
		return errors.E(err, "cpgidx: writing magic", path)
	}
	gz := gzip.NewWriter(w)
	for _, pos := range idx.positions {
		if err := binary.Write(gz, binary.LittleEndian, uint32(len(pos))); err != nil {
			return errors.E(err, "cpgidx: writing chromosome count", path)
		}
		if err := binary.Write(gz, binary.LittleEndian, pos); err != nil {
			return errors.E(err, "cpgidx: writing positions", path)
		}
	}
	return gz.Close()
}

// LoadIndex reads the binary .cpg_idx file at path, using meta to know the
// expected chromosome order and assembly, and reconstructs an Index. It
// returns an error if the resulting index's hash does not match
// meta.IndexHash.
func LoadIndex(ctx context.Context, path string, meta Metadata) (idx *Index, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "cpgidx: opening index file", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	r := in.Reader(ctx)
	magic := make([]byte, len(cpgIdxMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, errors.E(err, "cpgidx: reading magic", path)
	}
	for i := range magic {
		if magic[i] != cpgIdxMagic[i] && i != 4 { // byte 4 is the version, tolerate future bumps
			return nil, errors.Errorf("cpgidx: %s is not a valid .cpg_idx file", path)
		}
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.E(err, "cpgidx: opening gzip stream", path)
	}
	defer gz.Close() // nolint: errcheck

	positions := make([][]uint32, len(meta.Chromosomes))
	for i := range meta.Chromosomes {
		var n uint32
		if err := binary.Read(gz, binary.LittleEndian, &n); err != nil {
			return nil, errors.E(err, "cpgidx: reading chromosome count", path)
		}
		pos := make([]uint32, n)
		if n > 0 {
			if err := binary.Read(gz, binary.LittleEndian, pos); err != nil {
				return nil, errors.E(err, "cpgidx: reading positions", path)
			}
		}
		positions[i] = pos
	}
	if _, err := ioutil.ReadAll(gz); err != nil {
		return nil, errors.E(err, "cpgidx: trailing garbage in index file", path)
	}

	idx, err = New(meta.Assembly, meta.Chromosomes, positions)
	if err != nil {
		return nil, err
	}
	if idx.hash != meta.IndexHash {
		return nil, errors.Errorf("cpgidx: %s: index_hash mismatch: file produces %x, metadata says %x", path, idx.hash, meta.IndexHash)
	}
	if idx.nCpGs != meta.NCpGs {
		return nil, errors.Errorf("cpgidx: %s: n_cpgs mismatch: file has %d, metadata says %d", path, idx.nCpGs, meta.NCpGs)
	}
	return idx, nil
}
