package codegen

import "fmt"

// Symbol describes a name known to a translation. Place is where its value
// lives in emitted code.
type Symbol struct {
	Name  string
	Type  string
	Place string
}

// SymbolTable maps names to descriptors and mints temporaries and labels.
// Every translation owns its own table; counters are never shared.
type SymbolTable struct {
	table      map[string]*Symbol
	tempCount  int
	labelCount int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{table: make(map[string]*Symbol)}
}

// Declare records name with the given type tag, overwriting any earlier tag.
func (st *SymbolTable) Declare(name, typeTag string) {
	if sym, ok := st.table[name]; ok {
		sym.Type = typeTag
		return
	}
	st.table[name] = &Symbol{Name: name, Type: typeTag, Place: name}
}

func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := st.table[name]
	return sym, ok
}

func (st *SymbolTable) NewTemp() string {
	t := fmt.Sprintf("t%d", st.tempCount)
	st.tempCount++
	return t
}

func (st *SymbolTable) NewLabel() string {
	l := fmt.Sprintf("L%d", st.labelCount)
	st.labelCount++
	return l
}

func (st *SymbolTable) TempCount() int { return st.tempCount }
