package domain

// Table is a labelled, frame-ordered block of values handed to the
// presentation layer. Rows[i] holds the values of frame FirstFrame+i.
type Table struct {
	Title      string      `json:"title,omitempty"`
	Columns    []string    `json:"columns"`
	FirstFrame int         `json:"first_frame"`
	Rows       [][]float64 `json:"rows"`
}

// Len returns the number of rows in the table
func (t Table) Len() int {
	return len(t.Rows)
}
