package logging

import (
	"fmt"
)

// Type returns the type name of the given value, used to label log entries by message type.
func Type(obj interface{}) string {
	return fmt.Sprintf("%T", obj)
}
