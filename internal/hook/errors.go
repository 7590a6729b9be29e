package hook

import (
	"fmt"

	"go-data-sentinel/internal/model"
)

// AbortError signals that a blocking validation failure requires the host
// run to stop. The hook only decides that an abort is required; the host
// runner's own cancellation contract propagates it.
type AbortError struct {
	RunID   string
	Dataset string
	Report  model.ValidationReport
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("blocking validation failure for dataset %q in run %s", e.Dataset, e.RunID)
}

// exceptionToStr renders a host error for audit payloads.
func exceptionToStr(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%T: %v", err, err)
}
