package magnitude

// Table maps catalog numbers to standard magnitudes. The zero value is
// usable and answers DefaultStandard for everything.
type Table struct {
	Default float64 // for catalogs without an entry; zero means DefaultStandard
	byID    map[int]float64
}

// NewTable creates a table with the given default and entries.
func NewTable(def float64, entries map[int]float64) *Table {
	t := &Table{Default: def, byID: make(map[int]float64, len(entries))}
	for id, m := range entries {
		t.byID[id] = m
	}
	return t
}

// Lookup returns the standard magnitude of catalog, or the table default.
func (t *Table) Lookup(catalog int) float64 {
	if t == nil {
		return DefaultStandard
	}
	if m, ok := t.byID[catalog]; ok {
		return m
	}
	if t.Default == 0 {
		return DefaultStandard
	}
	return t.Default
}

// Set records the standard magnitude of catalog.
func (t *Table) Set(catalog int, standard float64) {
	if t.byID == nil {
		t.byID = make(map[int]float64)
	}
	t.byID[catalog] = standard
}

// Len returns the number of explicit entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}
