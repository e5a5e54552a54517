package dataset

import "fmt"

// DataEntry is one row: a cell per declared column, in schema order, plus a
// handle to the actor that produced it. ActorID is the producing actor's
// dataset ID and is resolved through the actor registry; the entry never
// owns the actor.
type DataEntry struct {
	RowID   string      `json:"row_id"`
	ActorID string      `json:"actor_id"`
	Values  []DataValue `json:"values"`
}

// NewEntry creates an entry from default cell values.
func NewEntry(rowID, actorID string, values []DataValue) *DataEntry {
	return &DataEntry{RowID: rowID, ActorID: actorID, Values: values}
}

// Value returns the cell for a column name.
func (e *DataEntry) Value(column string) (DataValue, bool) {
	for _, v := range e.Values {
		if v.ColumnName == column {
			return v, true
		}
	}
	return DataValue{}, false
}

// SetValue replaces the raw value of an editable cell.
func (e *DataEntry) SetValue(column, value string) error {
	for i := range e.Values {
		v := &e.Values[i]
		if v.ColumnName != column {
			continue
		}
		if !v.Editable() {
			return fmt.Errorf("%w: column %q", ErrReadOnly, column)
		}
		if err := checkValue(v.ValueType, value); err != nil {
			return fmt.Errorf("column %q: %w", column, err)
		}
		v.Value = value
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

// Clone returns a deep copy of the entry.
func (e *DataEntry) Clone() *DataEntry {
	cp := *e
	cp.Values = append([]DataValue(nil), e.Values...)
	return &cp
}

func (e *DataEntry) setRowIndex(i int) {
	for j := range e.Values {
		e.Values[j].RowIndex = i
	}
}
