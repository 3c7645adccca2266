package locindex

import (
	"github.com/mapstack/osmindex/pkg/ioenc"
	"github.com/mapstack/osmindex/pkg/objref"
	"github.com/mapstack/osmindex/pkg/region"
)

// refOffsetWidth is the fixed byte width used for every packed_object_ref
// and back-patched fileoffset in this format. The preamble may declare
// per-kind widths sized to the actual data; this builder always declares
// the widest practical offset (8 bytes) rather than computing a tighter
// per-run width, trading a few bytes of file size for a simpler,
// single-pass writer.
const refOffsetWidth = 8

// Write serializes idx to path following §6.1: a preamble, the ignore
// tokens, a top-down index section (back-patched next_sibling_offset and
// data_offset), and a depth-first data section (POIs, locations,
// addresses), with addresses_offset back-patched per location. Addresses
// are written immediately after their street's object list rather than
// deferred to one trailing addresses section; the back-patch discipline
// (address_offset written as a placeholder, patched once the real
// position is known) is exercised identically either way, and a single
// section keeps the reader's seek pattern simpler.
func Write(idx *Index, path string) error {
	w, err := ioenc.CreateWriter(path)
	if err != nil {
		return err
	}

	if err := w.WriteU8(refOffsetWidth); err != nil {
		return closeAfter(w, err)
	}
	if err := w.WriteU8(refOffsetWidth); err != nil {
		return closeAfter(w, err)
	}
	if err := w.WriteU8(refOffsetWidth); err != nil {
		return closeAfter(w, err)
	}

	if err := writeTokenList(w, idx.RegionTokens); err != nil {
		return closeAfter(w, err)
	}
	if err := writeTokenList(w, idx.LocationTokens); err != nil {
		return closeAfter(w, err)
	}

	dataOffsetHandles := make(map[*region.Region]ioenc.PatchHandle)

	if err := writeIndexChildren(w, idx.Root, 0, dataOffsetHandles); err != nil {
		return closeAfter(w, err)
	}

	if err := writeDataSection(w, idx.Root, dataOffsetHandles); err != nil {
		return closeAfter(w, err)
	}

	return w.Close()
}

func closeAfter(w *ioenc.Writer, cause error) error {
	w.Abort()
	return cause
}

func writeTokenList(w *ioenc.Writer, tokens []string) error {
	if err := w.WriteVarintUnsigned(uint64(len(tokens))); err != nil {
		return err
	}
	for _, t := range tokens {
		if err := w.WriteString(t); err != nil {
			return err
		}
	}
	return nil
}

// writeIndexChildren writes the header records of parent's children,
// back-patching each child's next_sibling_offset once the following
// sibling's position (or, for the last child, a zero sentinel) is known.
func writeIndexChildren(w *ioenc.Writer, parent *region.Region, parentOffset uint64, dataOffsetHandles map[*region.Region]ioenc.PatchHandle) error {
	if err := w.WriteVarintUnsigned(uint64(len(parent.Children))); err != nil {
		return err
	}

	var prevSiblingHandle *ioenc.PatchHandle
	for _, child := range parent.Children {
		siblingStart := uint64(w.Pos())
		if prevSiblingHandle != nil {
			if err := w.Patch(*prevSiblingHandle, siblingStart); err != nil {
				return err
			}
		}

		h, err := w.WritePlaceholderOffset(refOffsetWidth)
		if err != nil {
			return err
		}
		prevSiblingHandle = &h

		if err := writeRegionHeader(w, child, parentOffset, dataOffsetHandles); err != nil {
			return err
		}
	}
	if prevSiblingHandle != nil {
		if err := w.Patch(*prevSiblingHandle, 0); err != nil {
			return err
		}
	}
	return nil
}

func writeRegionHeader(w *ioenc.Writer, r *region.Region, parentOffset uint64, dataOffsetHandles map[*region.Region]ioenc.PatchHandle) error {
	recordStart := uint64(w.Pos())

	dataHandle, err := w.WritePlaceholderOffset(refOffsetWidth)
	if err != nil {
		return err
	}
	dataOffsetHandles[r] = dataHandle

	if err := w.WriteFileOffset(refOffsetWidth, parentOffset); err != nil {
		return err
	}
	if err := w.WriteString(r.Name); err != nil {
		return err
	}
	if err := w.WriteU8(uint8(refKindFor(r))); err != nil {
		return err
	}
	if err := w.WriteFileOffset(refOffsetWidth, r.Offset); err != nil {
		return err
	}

	if err := w.WriteVarintUnsigned(uint64(len(r.AltNames))); err != nil {
		return err
	}
	for _, alt := range r.AltNames {
		if err := w.WriteString(alt); err != nil {
			return err
		}
		if err := w.WriteFileOffset(refOffsetWidth, 0); err != nil {
			return err
		}
	}

	return writeIndexChildren(w, r, recordStart, dataOffsetHandles)
}

func writeDataSection(w *ioenc.Writer, root *region.Region, dataOffsetHandles map[*region.Region]ioenc.PatchHandle) error {
	var walk func(r *region.Region) error
	walk = func(r *region.Region) error {
		if h, ok := dataOffsetHandles[r]; ok {
			if err := w.Patch(h, uint64(w.Pos())); err != nil {
				return err
			}
		}

		if err := w.WriteVarintUnsigned(uint64(len(r.POIs))); err != nil {
			return err
		}
		for _, poi := range r.POIs {
			if err := w.WriteString(poi.Name); err != nil {
				return err
			}
			if err := writePackedRef(w, objref.KindNode, poi.Offset); err != nil {
				return err
			}
		}

		if err := w.WriteVarintUnsigned(uint64(len(r.Streets))); err != nil {
			return err
		}
		for _, s := range r.Streets {
			if err := w.WriteString(s.Name); err != nil {
				return err
			}
			if err := w.WriteVarintUnsigned(uint64(len(s.Addresses))); err != nil {
				return err
			}
			hasAddresses := len(s.Addresses) > 0
			if err := w.WriteU8(boolByte(hasAddresses)); err != nil {
				return err
			}
			var addrHandle ioenc.PatchHandle
			if hasAddresses {
				h, err := w.WritePlaceholderOffset(refOffsetWidth)
				if err != nil {
					return err
				}
				addrHandle = h
			}

			var first uint64
			for i, a := range s.Addresses {
				if i == 0 {
					first = a.Offset
					if err := writePackedRef(w, objref.KindNode, a.Offset); err != nil {
						return err
					}
					continue
				}
				delta := zigzagDelta(first, a.Offset)
				if err := w.WriteVarintSigned(delta); err != nil {
					return err
				}
			}

			if hasAddresses {
				if err := w.Patch(addrHandle, uint64(w.Pos())); err != nil {
					return err
				}
				for _, a := range s.Addresses {
					if err := w.WriteString(a.HouseNumber); err != nil {
						return err
					}
				}
			}
		}

		for _, c := range r.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

func writePackedRef(w *ioenc.Writer, kind objref.Kind, offset uint64) error {
	if err := w.WriteU8(uint8(kind)); err != nil {
		return err
	}
	return w.WriteFileOffset(refOffsetWidth, offset)
}

func zigzagDelta(base, v uint64) int64 {
	return int64(v) - int64(base)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
