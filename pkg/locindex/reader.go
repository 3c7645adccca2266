package locindex

import (
	"github.com/mapstack/osmindex/pkg/ioenc"
	"github.com/mapstack/osmindex/pkg/objref"
)

// ReadNode is one node of the reconstructed header tree: everything a
// query-time name lookup needs, without eagerly loading POIs, streets, or
// addresses (those are read lazily from DataOffset on demand, matching
// the on-disk format's own index/data split, §6.1).
type ReadNode struct {
	Name      string
	Reference objref.Ref
	AltNames  []string
	Children  []*ReadNode

	dataOffset uint64
}

// ReadIndex is a location index loaded from disk: the header tree plus an
// open scanner for on-demand data-section reads.
type ReadIndex struct {
	Root *ReadNode

	RegionTokens   []string
	LocationTokens []string

	scanner *ioenc.Scanner

	bytesPerNodeOffset int
	bytesPerAreaOffset int
	bytesPerWayOffset  int
}

// Close releases the underlying scanner.
func (idx *ReadIndex) Close() error {
	return idx.scanner.Close()
}

// Read loads the preamble, ignore tokens, and the full header tree from
// path, leaving POI/street/address data to be pulled on demand via
// ReadNode.Data.
func Read(path string) (*ReadIndex, error) {
	s, err := ioenc.OpenScanner(path)
	if err != nil {
		return nil, err
	}

	idx := &ReadIndex{scanner: s}

	bn, err := s.ReadU8()
	if err != nil {
		return nil, err
	}
	ba, err := s.ReadU8()
	if err != nil {
		return nil, err
	}
	bw, err := s.ReadU8()
	if err != nil {
		return nil, err
	}
	idx.bytesPerNodeOffset = int(bn)
	idx.bytesPerAreaOffset = int(ba)
	idx.bytesPerWayOffset = int(bw)

	idx.RegionTokens, err = readTokenList(s)
	if err != nil {
		return nil, err
	}
	idx.LocationTokens, err = readTokenList(s)
	if err != nil {
		return nil, err
	}

	root := &ReadNode{}
	if err := readChildren(s, root, 0); err != nil {
		return nil, err
	}
	idx.Root = root

	return idx, nil
}

func readTokenList(s *ioenc.Scanner) ([]string, error) {
	n, err := s.ReadVarintUnsigned()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		str, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, str)
	}
	return out, nil
}

func readChildren(s *ioenc.Scanner, parent *ReadNode, depth int) error {
	count, err := s.ReadVarintUnsigned()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		if _, err := s.ReadFileOffset(refOffsetWidth); err != nil { // next_sibling_offset: unused by a full-tree reader
			return err
		}
		child := &ReadNode{}
		if err := readRegionHeader(s, child); err != nil {
			return err
		}
		parent.Children = append(parent.Children, child)
	}
	return nil
}

func readRegionHeader(s *ioenc.Scanner, node *ReadNode) error {
	dataOffset, err := s.ReadFileOffset(refOffsetWidth)
	if err != nil {
		return err
	}
	node.dataOffset = dataOffset

	if _, err := s.ReadFileOffset(refOffsetWidth); err != nil { // parent_index_offset: not needed once loaded into memory
		return err
	}

	node.Name, err = s.ReadString()
	if err != nil {
		return err
	}

	kind, err := s.ReadU8()
	if err != nil {
		return err
	}
	refOffset, err := s.ReadFileOffset(refOffsetWidth)
	if err != nil {
		return err
	}
	node.Reference = objref.Ref{Kind: objref.Kind(kind), Offset: refOffset}

	aliasCount, err := s.ReadVarintUnsigned()
	if err != nil {
		return err
	}
	for i := uint64(0); i < aliasCount; i++ {
		name, err := s.ReadString()
		if err != nil {
			return err
		}
		if _, err := s.ReadFileOffset(refOffsetWidth); err != nil {
			return err
		}
		node.AltNames = append(node.AltNames, name)
	}

	return readChildren(s, node, 0)
}

// NodeData is the lazily-loaded POI/street/address payload for one
// ReadNode, fetched on demand by following its data_offset (§6.1 data
// section).
type NodeData struct {
	POIs    []DataPOI
	Streets []DataStreet
}

type DataPOI struct {
	Name string
	Ref  objref.Ref
}

type DataStreet struct {
	Name         string
	Objects      []objref.Ref
	Addresses    []string // house numbers, parallel to Objects when present
}

// Data seeks idx's scanner to node's data_offset and reads its POI/street
// payload. Callers must not interleave Data calls with tree traversal on
// the same ReadIndex from multiple goroutines; wrap with routecache or a
// mutex for concurrent query serving.
func (idx *ReadIndex) Data(node *ReadNode) (*NodeData, error) {
	s := idx.scanner
	if err := s.SetPos(int64(node.dataOffset)); err != nil {
		return nil, err
	}

	out := &NodeData{}

	poiCount, err := s.ReadVarintUnsigned()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < poiCount; i++ {
		name, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		ref, err := readPackedRef(s)
		if err != nil {
			return nil, err
		}
		out.POIs = append(out.POIs, DataPOI{Name: name, Ref: ref})
	}

	streetCount, err := s.ReadVarintUnsigned()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < streetCount; i++ {
		street, err := readStreet(s)
		if err != nil {
			return nil, err
		}
		out.Streets = append(out.Streets, street)
	}

	return out, nil
}

func readStreet(s *ioenc.Scanner) (DataStreet, error) {
	name, err := s.ReadString()
	if err != nil {
		return DataStreet{}, err
	}
	objectCount, err := s.ReadVarintUnsigned()
	if err != nil {
		return DataStreet{}, err
	}
	hasAddressesByte, err := s.ReadU8()
	if err != nil {
		return DataStreet{}, err
	}
	hasAddresses := hasAddressesByte != 0

	var addrOffset uint64
	if hasAddresses {
		addrOffset, err = s.ReadFileOffset(refOffsetWidth)
		if err != nil {
			return DataStreet{}, err
		}
	}

	street := DataStreet{Name: name}
	var first uint64
	for i := uint64(0); i < objectCount; i++ {
		if i == 0 {
			ref, err := readPackedRef(s)
			if err != nil {
				return DataStreet{}, err
			}
			first = ref.Offset
			street.Objects = append(street.Objects, ref)
			continue
		}
		delta, err := s.ReadVarintSigned()
		if err != nil {
			return DataStreet{}, err
		}
		street.Objects = append(street.Objects, objref.Ref{Kind: objref.KindNode, Offset: uint64(int64(first) + delta)})
	}

	if hasAddresses {
		savedPos, err := s.Pos()
		if err != nil {
			return DataStreet{}, err
		}
		if err := s.SetPos(int64(addrOffset)); err != nil {
			return DataStreet{}, err
		}
		for range street.Objects {
			hn, err := s.ReadString()
			if err != nil {
				return DataStreet{}, err
			}
			street.Addresses = append(street.Addresses, hn)
		}
		if err := s.SetPos(savedPos); err != nil {
			return DataStreet{}, err
		}
	}

	return street, nil
}

func readPackedRef(s *ioenc.Scanner) (objref.Ref, error) {
	kind, err := s.ReadU8()
	if err != nil {
		return objref.Ref{}, err
	}
	offset, err := s.ReadFileOffset(refOffsetWidth)
	if err != nil {
		return objref.Ref{}, err
	}
	return objref.Ref{Kind: objref.Kind(kind), Offset: offset}, nil
}
