package mem

import "fmt"

// DefaultPageSize provides a default for Words.PageSize.
const DefaultPageSize = 512

// Words implements a word-oriented paged memory that only ever grows.
// Pages are allocated lazily as Grow extends the region, so no page is ever
// moved once handed out; addresses past Size are never readable.
type Words struct {
	// PageSize specifies the length of each page; it is fixed by the first
	// Grow.
	PageSize uint

	// Limit specifies a maximum Size, past which Grow fails; 0 means no limit.
	Limit uint

	pages [][]uint64
	size  uint
}

// LimitError indicates that growing memory would exceed its Limit.
type LimitError struct {
	Size  uint
	Limit uint
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("memory limit %v exceeded by growth to %v words", lim.Limit, lim.Size)
}

// BoundsError indicates a load or store outside of the grown region.
type BoundsError struct {
	Addr uint
	Op   string
	Size uint
}

func (be BoundsError) Error() string {
	return fmt.Sprintf("%v @%v out of bounds (size %v)", be.Op, be.Addr, be.Size)
}

// Size returns the number of addressable words.
func (m *Words) Size() uint { return m.size }

// Grow extends memory by n zeroed words, returning the address of the first
// new word. Returns a LimitError, without growing, if Limit would be exceeded.
func (m *Words) Grow(n uint) (uint, error) {
	base := m.size
	end := base + n
	if end < base {
		return 0, LimitError{^uint(0), m.Limit}
	}
	if m.Limit != 0 && end > m.Limit {
		return 0, LimitError{end, m.Limit}
	}
	if m.PageSize == 0 {
		m.PageSize = DefaultPageSize
	}
	for uint(len(m.pages))*m.PageSize < end {
		m.pages = append(m.pages, make([]uint64, m.PageSize))
	}
	m.size = end
	return base, nil
}

// Load returns a single word from the given address.
func (m *Words) Load(addr uint) (uint64, error) {
	if addr >= m.size {
		return 0, BoundsError{addr, "load", m.size}
	}
	return m.pages[addr/m.PageSize][addr%m.PageSize], nil
}

// LoadInto reads len(buf) words from memory starting at addr.
// No partial load is done if any of the range is out of bounds.
func (m *Words) LoadInto(addr uint, buf []uint64) error {
	if len(buf) == 0 {
		return nil
	}
	if end := addr + uint(len(buf)); end > m.size || end < addr {
		return BoundsError{addr, "load", m.size}
	}
	for len(buf) > 0 {
		page := m.pages[addr/m.PageSize][addr%m.PageSize:]
		n := copy(buf, page)
		buf = buf[n:]
		addr += uint(n)
	}
	return nil
}

// Stor stores values at addr, which must already be within Size.
// No partial store is done if any of the range is out of bounds.
func (m *Words) Stor(addr uint, values ...uint64) error {
	if len(values) == 0 {
		return nil
	}
	if end := addr + uint(len(values)); end > m.size || end < addr {
		return BoundsError{addr, "stor", m.size}
	}
	for len(values) > 0 {
		page := m.pages[addr/m.PageSize][addr%m.PageSize:]
		n := copy(page, values)
		values = values[n:]
		addr += uint(n)
	}
	return nil
}
