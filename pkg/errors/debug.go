package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const maxChainDepth = 8

// DBDiagnostics carries the driver-level details of a failed statement.
type DBDiagnostics struct {
	Driver     string `json:"driver"`
	Code       string `json:"code,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ErrorDump is the log-only view of an error. It is never written to clients.
type ErrorDump struct {
	TopMessage string         `json:"top_message"`
	Code       Code           `json:"code,omitempty"`
	Chain      []string       `json:"chain,omitempty"`
	DB         *DBDiagnostics `json:"db,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error(), DB: diagnose(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}

	e := err
	for i := 0; e != nil && i < maxChainDepth; i++ {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
		e = errors.Unwrap(e)
	}
	return d
}

// Fields flattens the dump into logger fields. Database keys are present
// only when a driver error was found in the chain.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.DB == nil {
		return fields
	}
	fields["db_driver"] = d.DB.Driver
	for key, value := range map[string]string{
		"db_code":       d.DB.Code,
		"db_constraint": d.DB.Constraint,
		"db_table":      d.DB.Table,
		"db_column":     d.DB.Column,
		"db_detail":     d.DB.Detail,
		"db_message":    d.DB.Message,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

func diagnose(err error) *DBDiagnostics {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &DBDiagnostics{
			Driver:     "pgx",
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &DBDiagnostics{
			Driver:     "pq",
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return &DBDiagnostics{
			Driver:  "sqlite",
			Code:    fmt.Sprintf("%d", int(liteErr.ExtendedCode)),
			Message: liteErr.Error(),
		}
	}
	return nil
}
