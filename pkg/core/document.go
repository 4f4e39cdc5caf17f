package core

// Document is the indexed unit derived from one row.
type Document struct {
	// SheetName is stored and indexed.
	SheetName string
	// AllContent is indexed but never stored.
	AllContent string
	// OriginalData is stored verbatim and never indexed.
	OriginalData Row
}

// Flatten converts a row into a Document. AllContent is the canonical text of
// every value joined with a single space, in column order.
func Flatten(sheet string, row Row) Document {
	return Document{
		SheetName:    sheet,
		AllContent:   flattenValues(row),
		OriginalData: row,
	}
}

// Documents flattens every row of every sheet, sheets and rows in order.
func (s Sheets) Documents() []Document {
	docs := make([]Document, 0, s.RowCount())
	for _, sh := range s {
		for _, row := range sh.Rows {
			docs = append(docs, Flatten(sh.Name, row))
		}
	}
	return docs
}
