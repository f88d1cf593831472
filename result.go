package sqlmig

import "database/sql"

type Result interface {
	// LastInsertId returns the id generated by an INSERT into an
	// AUTO_INCREMENT column.
	LastInsertId() (int64, error)
	// MustLastInsertId is LastInsertId that panics on error.
	MustLastInsertId() int64

	// RowsAffected returns the number of rows changed by an UPDATE or DELETE.
	RowsAffected() (int64, error)
	// MustRowsAffected is RowsAffected that panics on error.
	MustRowsAffected() int64
}

type sqlResult struct {
	r sql.Result
}

func (r sqlResult) LastInsertId() (int64, error) {
	return r.r.LastInsertId()
}

func (r sqlResult) MustLastInsertId() int64 {
	return Mustv(r.LastInsertId())
}

func (r sqlResult) RowsAffected() (int64, error) {
	return r.r.RowsAffected()
}

func (r sqlResult) MustRowsAffected() int64 {
	return Mustv(r.RowsAffected())
}
