package entity

// Operation of an entity change
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

type Field struct {
	Name  string
	Value any
}

// Change is a single row operation on a named table
type Change struct {
	Entity    string
	ID        string
	Ordinal   uint64
	Operation Operation
	Fields    []Field
}

// Get returns the value of the named field
func (c Change) Get(name string) (any, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Row collects the fields of one change
type Row struct {
	change *Change
}

// Set assigns a field, replacing an earlier value of the same name
func (r *Row) Set(name string, value any) *Row {
	for i := range r.change.Fields {
		if r.change.Fields[i].Name == name {
			r.change.Fields[i].Value = value
			return r
		}
	}
	r.change.Fields = append(r.change.Fields, Field{Name: name, Value: value})
	return r
}

// Tables accumulates row operations in emission order. Two creates of the
// same key are kept as two changes.
type Tables struct {
	changes []*Change
}

func NewTables() *Tables {
	return &Tables{}
}

func (t *Tables) CreateRow(table, id string) *Row {
	return t.row(table, id, OperationCreate)
}

func (t *Tables) UpdateRow(table, id string) *Row {
	return t.row(table, id, OperationUpdate)
}

func (t *Tables) DeleteRow(table, id string) {
	t.row(table, id, OperationDelete)
}

func (t *Tables) Len() int {
	return len(t.changes)
}

// ToChanges returns every change in insertion order
func (t *Tables) ToChanges() []Change {
	changes := make([]Change, 0, len(t.changes))
	for _, c := range t.changes {
		changes = append(changes, *c)
	}
	return changes
}

func (t *Tables) row(table, id string, op Operation) *Row {
	c := &Change{
		Entity:    table,
		ID:        id,
		Ordinal:   uint64(len(t.changes)),
		Operation: op,
	}
	t.changes = append(t.changes, c)
	return &Row{change: c}
}
