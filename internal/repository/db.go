package repository

// scanner abstracts *sql.Row and *sql.Rows so the scan helpers work with
// both.
type scanner interface {
	Scan(dest ...any) error
}
