// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package methylome holds the dense, position-indexed count array for one
// sample's CpG methylation tallies, and the provenance metadata that pins it
// to a particular CpG index build.
package methylome

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io/ioutil"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/transferase/internal/xfrerr"
)

// Metadata is the provenance record accompanying a methylome's data file.
type Metadata struct {
	Version      string    `json:"version"`
	Host         string    `json:"host"`
	User         string    `json:"user"`
	CreationTime time.Time `json:"creation_time"`
	IndexHash    uint64    `json:"index_hash"`
	Assembly     string    `json:"assembly"`
	NCpGs        uint32    `json:"n_cpgs"`
}

// Data is a methylome's dense, position-indexed count array: one Count per
// CpG site in its owning index's linear order.
type Data struct {
	Counts []Count
}

// Size returns the number of CpG sites in the methylome, i.e. I.n_cpgs for
// the index it was built against.
func (d *Data) Size() int { return len(d.Counts) }

// Load reads a methylome's binary data file and JSON metadata sibling,
// verifying that the metadata's index hash and CpG count match indexHash
// and nCpGs (the currently-loaded CpG index for the methylome's assembly).
func Load(ctx context.Context, dataPath, metaPath string, indexHash uint64, nCpGs uint32) (*Data, Metadata, error) {
	meta, err := LoadMetadata(ctx, metaPath)
	if err != nil {
		return nil, meta, xfrerr.Wrap(xfrerr.MethylomeFileNotFound, err, "reading metadata for "+metaPath)
	}
	if meta.IndexHash != indexHash {
		return nil, meta, xfrerr.New(xfrerr.IndexHashMismatch,
			errors.Errorf("%s: index_hash mismatch: metadata has %x, expected %x", metaPath, meta.IndexHash, indexHash).Error())
	}
	if meta.NCpGs != nCpGs {
		return nil, meta, xfrerr.New(xfrerr.IndexHashMismatch,
			errors.Errorf("%s: n_cpgs mismatch: metadata has %d, expected %d", metaPath, meta.NCpGs, nCpGs).Error())
	}
	data, err := LoadData(ctx, dataPath, meta.NCpGs)
	if err != nil {
		return nil, meta, xfrerr.Wrap(xfrerr.MethylomeFileNotFound, err, "reading data for "+dataPath)
	}
	return data, meta, nil
}

// LoadMetadata reads a methylome's JSON metadata file.
func LoadMetadata(ctx context.Context, path string) (Metadata, error) {
	var meta Metadata
	in, err := file.Open(ctx, path)
	if err != nil {
		return meta, errors.E(err, "methylome: opening metadata file", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if err := json.NewDecoder(in.Reader(ctx)).Decode(&meta); err != nil {
		return meta, errors.E(err, "methylome: decoding metadata file", path)
	}
	return meta, nil
}

// SaveMetadata writes meta as JSON to path.
func SaveMetadata(ctx context.Context, path string, meta Metadata) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "methylome: creating metadata file", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	enc := json.NewEncoder(out.Writer(ctx))
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// LoadData reads the header-less, fixed-width binary data file at path: n
// little-endian (m uint16, u uint16) pairs, 4 bytes each. It returns an
// error if the file size does not equal 4*wantCpGs.
func LoadData(ctx context.Context, path string, wantCpGs uint32) (data *Data, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "methylome: opening data file", path)
	}
	defer file.CloseAndReport(ctx, in, &err)

	raw, err := ioutil.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, errors.E(err, "methylome: reading data file", path)
	}
	wantBytes := int(wantCpGs) * 4
	if len(raw) != wantBytes {
		return nil, errors.Errorf("methylome: %s: file size %d does not match expected %d (%d CpGs)", path, len(raw), wantBytes, wantCpGs)
	}
	counts := make([]Count, wantCpGs)
	for i := range counts {
		off := i * 4
		counts[i] = Count{
			NMeth:   binary.LittleEndian.Uint16(raw[off : off+2]),
			NUnmeth: binary.LittleEndian.Uint16(raw[off+2 : off+4]),
		}
	}
	return &Data{Counts: counts}, nil
}

// SaveData writes data's counts to path in the fixed-width binary layout
// read by LoadData.
func SaveData(ctx context.Context, path string, data *Data) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "methylome: creating data file", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	raw := make([]byte, len(data.Counts)*4)
	for i, c := range data.Counts {
		off := i * 4
		binary.LittleEndian.PutUint16(raw[off:off+2], c.NMeth)
		binary.LittleEndian.PutUint16(raw[off+2:off+4], c.NUnmeth)
	}
	_, err = out.Writer(ctx).Write(raw)
	return err
}
