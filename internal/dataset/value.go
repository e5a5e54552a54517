package dataset

import (
	"fmt"
	"strconv"
)

// ValueType is the semantic type of every cell in a column.
type ValueType string

const (
	ValueText      ValueType = "text"
	ValueParagraph ValueType = "paragraph"
	ValueNumeric   ValueType = "numeric"
)

// Permission controls who may edit a column's cells.
type Permission string

const (
	PermissionViewOnly Permission = "view_only"
	PermissionEditable Permission = "editable"
	PermissionHidden   Permission = "hidden"
)

// ColumnInfo describes one column of a DataSet. It is fixed when the set is
// created and shared by every entry's cell in that column.
type ColumnInfo struct {
	Index      int        `json:"index"`
	Name       string     `json:"name"`
	ValueType  ValueType  `json:"value_type"`
	Permission Permission `json:"permission"`
}

// DataValue is a single cell of a DataEntry.
type DataValue struct {
	RowIndex   int        `json:"row_index"`
	RowID      string     `json:"row_id"`
	ColumnName string     `json:"column_name"`
	Value      string     `json:"value"`
	ValueType  ValueType  `json:"value_type"`
	Permission Permission `json:"permission"`
}

// NewValue builds a cell for col. The row index is assigned when the owning
// entry is added to a DataSet.
func NewValue(col ColumnInfo, rowID, value string) DataValue {
	return DataValue{
		RowIndex:   -1,
		RowID:      rowID,
		ColumnName: col.Name,
		Value:      value,
		ValueType:  col.ValueType,
		Permission: col.Permission,
	}
}

// Editable reports whether the cell may be changed by callers.
func (v DataValue) Editable() bool {
	return v.Permission == PermissionEditable
}

// checkValue validates a raw value against a value type.
func checkValue(t ValueType, value string) error {
	switch t {
	case ValueText, ValueParagraph:
		return nil
	case ValueNumeric:
		if value == "" {
			return nil
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%w: %q is not numeric", ErrInvalidValue, value)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown value type %q", ErrInvalidSchema, t)
	}
}
