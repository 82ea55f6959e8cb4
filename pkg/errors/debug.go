package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const maxChainDepth = 8

// Diagnostics is the log-only view of an error. It never reaches clients.
type Diagnostics struct {
	Message string
	Code    Code
	Chain   []string
	Store   *StoreError
}

// StoreError carries the Postgres fields that identify a failed statement.
type StoreError struct {
	SQLState   string
	Constraint string
	Table      string
	Detail     string
}

// Diagnose unwraps err for logging. Both pgx and lib/pq errors are recognised
// because gorm and goose use different drivers.
func Diagnose(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}

	d := Diagnostics{Message: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil && len(d.Chain) < maxChainDepth; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T", e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.Store = &StoreError{SQLState: pgxErr.Code, Constraint: pgxErr.ConstraintName, Table: pgxErr.TableName, Detail: pgxErr.Detail}
	case errors.As(err, &pqErr):
		d.Store = &StoreError{SQLState: string(pqErr.Code), Constraint: pqErr.Constraint, Table: pqErr.Table, Detail: pqErr.Detail}
	}
	return d
}

// Fields flattens the diagnostics into structured log fields.
func (d Diagnostics) Fields() map[string]any {
	fields := map[string]any{"error": d.Message}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if len(d.Chain) > 0 {
		fields["error_chain"] = d.Chain
	}
	if d.Store != nil {
		fields["sql_state"] = d.Store.SQLState
		if d.Store.Constraint != "" {
			fields["sql_constraint"] = d.Store.Constraint
		}
		if d.Store.Table != "" {
			fields["sql_table"] = d.Store.Table
		}
		if d.Store.Detail != "" {
			fields["sql_detail"] = d.Store.Detail
		}
	}
	return fields
}
