package mem

// WordsDump exposes a Words' pages to tests.
type WordsDump struct {
	Size  uint
	Pages [][]uint64
}

func (m *Words) Dump() WordsDump {
	return WordsDump{m.size, m.pages}
}
