package taskqueue

import (
	"fmt"
)

// taskTypeName identifies a task in log output by its dynamic type, e.g.
// "taskqueue.TaskFunc" or "*app.flushTask".
func taskTypeName(task Task) string {
	if task == nil {
		return `<nil>`
	}
	return fmt.Sprintf(`%T`, task)
}
