package party

import (
	"encoding/binary"
	"io"
	"sort"
	"strings"
)

// IDSlice is a sorted list of party IDs without duplicates.
//
// The canonical order of an IDSlice is the byte order of the IDs. Every value that
// all parties need to agree on is derived from IDs in this order.
type IDSlice []ID

// NewIDSlice returns a sorted copy of partyIDs.
func NewIDSlice(partyIDs []ID) IDSlice {
	ids := IDSlice(partyIDs).Copy()
	ids.sort()
	return ids
}

// Contains returns true if partyIDs contains all of the given ids.
func (partyIDs IDSlice) Contains(ids ...ID) bool {
	for _, id := range ids {
		if _, found := partyIDs.search(id); !found {
			return false
		}
	}
	return true
}

// Valid returns true if the IDSlice is sorted, contains no duplicates and no empty ID.
func (partyIDs IDSlice) Valid() bool {
	for i := range partyIDs {
		if partyIDs[i] == "" {
			return false
		}
		if i > 0 && partyIDs[i-1] >= partyIDs[i] {
			return false
		}
	}
	return true
}

// Copy returns an identical copy of the received.
func (partyIDs IDSlice) Copy() IDSlice {
	a := make(IDSlice, len(partyIDs))
	copy(a, partyIDs)
	return a
}

// Remove finds id in partyIDs and returns a copy of the slice if it was found.
func (partyIDs IDSlice) Remove(id ID) IDSlice {
	newPartyIDs := make(IDSlice, 0, len(partyIDs))
	for _, partyID := range partyIDs {
		if partyID != id {
			newPartyIDs = append(newPartyIDs, partyID)
		}
	}
	return newPartyIDs
}

// GetIndex returns the index of id in partyIDs.
// If no index was found, return -1.
func (partyIDs IDSlice) GetIndex(id ID) int {
	if idx, ok := partyIDs.search(id); ok {
		return idx
	}
	return -1
}

func (partyIDs IDSlice) search(x ID) (int, bool) {
	index := sort.Search(len(partyIDs), func(i int) bool { return partyIDs[i] >= x })
	if index < len(partyIDs) && partyIDs[index] == x {
		return index, true
	}
	return 0, false
}

func (partyIDs IDSlice) sort() {
	sort.Slice(partyIDs, func(i, j int) bool { return partyIDs[i] < partyIDs[j] })
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
// Each ID is length prefixed so that the encoding is unambiguous.
func (partyIDs IDSlice) WriteTo(w io.Writer) (int64, error) {
	if partyIDs == nil {
		return 0, io.ErrUnexpectedEOF
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(partyIDs)))
	n, err := w.Write(buf)
	total := int64(n)
	if err != nil {
		return total, err
	}
	for _, id := range partyIDs {
		binary.BigEndian.PutUint32(buf, uint32(len(id)))
		if n, err = w.Write(buf); err != nil {
			return total + int64(n), err
		}
		total += int64(n)
		if n, err = w.Write([]byte(id)); err != nil {
			return total + int64(n), err
		}
		total += int64(n)
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (IDSlice) Domain() string {
	return "IDSlice"
}

func (partyIDs IDSlice) String() string {
	ss := make([]string, len(partyIDs))
	for i, id := range partyIDs {
		ss[i] = string(id)
	}
	return strings.Join(ss, ", ")
}
