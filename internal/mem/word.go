// Package mem implements the VM's word-addressable array of 32-bit
// cells: memory is allocated lazily in fixed-size pages as stores touch
// new addresses, so a program that only ever touches a handful of
// addresses near 0 and a handful near 0xFFFF never allocates the space
// between. internal/vm layers byte/half/word/doubleword addressing on
// top of this word-granular store.
package mem

import (
	"fmt"
	"sort"
)

// DefaultWordsPageSize is used for Words.PageSize when left at zero on
// the first Store.
const DefaultWordsPageSize = 256

// LimitError reports a load or store address past Words.Limit.
type LimitError struct {
	Addr uint
	Op   string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded by %v @%v", lim.Op, lim.Addr)
}

// page is one contiguous, densely-allocated run of word cells. Pages
// are kept sorted by base and never overlap; the address ranges
// between them read back as zero without ever being allocated.
type page struct {
	base  uint
	cells []uint32
}

func (p page) end() uint { return p.base + uint(len(p.cells)) }

// Words is a sparse, page-backed array of 32-bit cells addressed by
// word index (not byte offset).
type Words struct {
	// PageSize sets the size, in words, of newly allocated pages.
	PageSize uint
	// Limit caps the highest addressable word; zero means unlimited.
	Limit uint

	pages []page
}

// Size returns one past the highest word index ever allocated.
func (m *Words) Size() uint {
	if n := len(m.pages); n > 0 {
		return m.pages[n-1].end()
	}
	return 0
}

// Load reads the single cell at addr. An address that falls in a gap
// between pages, or past every page, reads back as 0.
func (m *Words) Load(addr uint) (uint32, error) {
	if err := m.checkLimit(addr, "load"); err != nil {
		return 0, err
	}
	if i := m.indexAtOrBefore(addr); i < len(m.pages) {
		if p := m.pages[i]; p.base <= addr && addr < p.end() {
			return p.cells[addr-p.base], nil
		}
	}
	return 0, nil
}

// LoadInto fills buf with len(buf) consecutive cells starting at addr,
// zeroing any stretch that falls in a gap between (or past) pages. No
// partial read happens: if Limit would be exceeded the call fails and
// buf is left untouched.
func (m *Words) LoadInto(addr uint, buf []uint32) error {
	if len(buf) == 0 {
		return nil
	}
	end := addr + uint(len(buf))
	if err := m.checkLimit(end, "load"); err != nil {
		return err
	}

	for i := range buf {
		buf[i] = 0
	}
	for _, p := range m.pages {
		if p.base >= end {
			break
		}
		lo, hi := addr, end
		if p.base > lo {
			lo = p.base
		}
		if p.end() < hi {
			hi = p.end()
		}
		for a := lo; a < hi; a++ {
			buf[a-addr] = p.cells[a-p.base]
		}
	}
	return nil
}

// Store writes values starting at addr, allocating pages as needed (or
// extending into an existing one). No partial write happens: if Limit
// would be exceeded the call fails and nothing is written.
func (m *Words) Store(addr uint, values ...uint32) error {
	if len(values) == 0 {
		return nil
	}
	end := addr + uint(len(values))
	if err := m.checkLimit(end, "store"); err != nil {
		return err
	}
	if m.PageSize == 0 {
		m.PageSize = DefaultWordsPageSize
	}

	// pageID walks forward one page at a time from the page at-or-
	// before addr; each step either lands in an existing page (writing
	// what fits, then continuing into the next) or allocates a new one
	// to close the gap up to the next existing page (or past the last
	// one, if there is no next).
	for pageID := m.indexAtOrBefore(addr); addr < end; pageID++ {
		pageID = m.ensurePage(pageID, addr)
		p := m.pages[pageID]
		if skip := addr - p.base; skip >= uint(len(p.cells)) {
			continue // existing page doesn't reach addr; move to the next
		}
		n := copy(p.cells[addr-p.base:], values)
		values = values[n:]
		addr += uint(n)
	}
	return nil
}

// indexAtOrBefore returns the index of the last page whose base is <=
// addr, or 0 if there are no pages, or if addr precedes every page's
// base (callers distinguish that case by comparing addr against
// m.pages[0].base themselves).
func (m *Words) indexAtOrBefore(addr uint) int {
	i := sort.Search(len(m.pages), func(i int) bool { return m.pages[i].base > addr })
	if i > 0 {
		i--
	}
	return i
}

// ensurePage returns the index of a page covering addr, creating one
// first if pageID doesn't already. pageID must be m.indexAtOrBefore(addr)
// on the first call, and the previous call's result plus one on every
// later call in the same walk: ensurePage relies on addr never having
// skipped back before a page that's already been passed.
func (m *Words) ensurePage(pageID int, addr uint) int {
	if pageID < len(m.pages) && addr >= m.pages[pageID].base {
		return pageID // addr falls at/after this page; Store's skip check handles the rest
	}

	if pageID < len(m.pages) {
		// a gap precedes the page at pageID: allocate just enough to
		// close it, clipped so the new page can't reach into pageID.
		aligned := addr / m.PageSize * m.PageSize
		size := m.PageSize
		if gap := m.pages[pageID].base - aligned; gap < size {
			size = gap
		}
		return m.insertPage(pageID, page{base: aligned, cells: make([]uint32, size)})
	}

	// pageID is past every existing page: extend the address space,
	// clipped so the new page can't reach back into the current last one.
	base := addr / m.PageSize * m.PageSize
	size := m.PageSize
	if n := len(m.pages); n > 0 {
		if lastEnd := m.pages[n-1].end(); base < lastEnd {
			size -= lastEnd - base
			base = lastEnd
		}
	}
	return m.insertPage(pageID, page{base: base, cells: make([]uint32, size)})
}

func (m *Words) insertPage(at int, p page) int {
	m.pages = append(m.pages, page{})
	copy(m.pages[at+1:], m.pages[at:])
	m.pages[at] = p
	return at
}

func (m *Words) checkLimit(addr uint, op string) error {
	if m.Limit != 0 && addr > m.Limit {
		return LimitError{addr, op}
	}
	return nil
}
