package methylome

import "math"

// Count is one CpG site's methylated/unmethylated read tally. Both fields
// are saturating: ConditionalRoundToFit is the only way to produce a Count,
// so neither field wraps around.
type Count struct {
	NMeth   uint16
	NUnmeth uint16
}

// Covered reports whether any read covers this site.
func (c Count) Covered() bool { return c.NMeth != 0 || c.NUnmeth != 0 }

// ConditionalRoundToFit applies the methylome saturation rule: if m+u would
// overflow a uint16 pair (exceed 65535), both values are scaled by
// 65535/max(m,u) and truncated, so the larger of the two lands exactly on
// 65535 and the stored pair fits without wraparound, preserving the
// methylated/unmethylated proportion within rounding. When m+u already
// fits, m and u are returned unchanged (truncated to uint16, which is
// lossless in that case).
func ConditionalRoundToFit(m, u uint32) Count {
	if m+u <= math.MaxUint16 {
		return Count{NMeth: uint16(m), NUnmeth: uint16(u)}
	}
	max := m
	if u > max {
		max = u
	}
	scale := float64(math.MaxUint16) / float64(max)
	return Count{
		NMeth:   uint16(float64(m) * scale),
		NUnmeth: uint16(float64(u) * scale),
	}
}

// AddCount folds dm additional methylated and du additional unmethylated
// reads into the existing saturating count c.
func AddCount(c Count, dm, du uint16) Count {
	return ConditionalRoundToFit(uint32(c.NMeth)+uint32(dm), uint32(c.NUnmeth)+uint32(du))
}
