package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"

	apperrors "repuestos/internal/errors"
)

const (
	errDuplicateEntry   = 1062
	errNoReferencedRow  = 1452
	errLockWaitTimeout  = 1205
	errDeadlockDetected = 1213
)

func mysqlErrorNumber(err error) (uint16, bool) {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number, true
	}
	return 0, false
}

// IsDuplicateKey reports a unique constraint violation.
func IsDuplicateKey(err error) bool {
	n, ok := mysqlErrorNumber(err)
	return ok && n == errDuplicateEntry
}

// IsForeignKeyViolation reports an insert that referenced a missing row.
func IsForeignKeyViolation(err error) bool {
	n, ok := mysqlErrorNumber(err)
	return ok && n == errNoReferencedRow
}

func IsDeadlock(err error) bool {
	n, ok := mysqlErrorNumber(err)
	return ok && (n == errDeadlockDetected || n == errLockWaitTimeout)
}

// ClassifyError turns lock contention into a DeadlockError and leaves every
// other error untouched.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if IsDeadlock(err) {
		return apperrors.NewDeadlockError("transaction aborted by lock contention", err)
	}
	return err
}

// ClassifyTxError classifies an error returned while txCtx, derived from
// parent, was in use. When parent is done the caller went away and the error
// becomes a CanceledError. When only txCtx expired the transaction ran past
// its own timeout and the error becomes a retryable DeadlockError.
func ClassifyTxError(parent, txCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if IsDeadlock(err) {
		return apperrors.NewDeadlockError("transaction aborted by lock contention", err)
	}
	if !interrupted(err) {
		return err
	}
	if parent.Err() != nil {
		return apperrors.NewCanceledError("request canceled before the transaction finished", err)
	}
	if errors.Is(txCtx.Err(), context.DeadlineExceeded) {
		return apperrors.NewDeadlockError("transaction timed out", err)
	}
	return err
}

// interrupted reports errors the driver or database/sql return when the
// context bound to a query or transaction ends.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrTxDone) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn)
}
