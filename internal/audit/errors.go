package audit

import "fmt"

// PersistenceError reports that the audit backing store was unreachable
// after retries. It is logged and counted but never blocks the pipeline
// run or the validation that produced the record.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("audit store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
