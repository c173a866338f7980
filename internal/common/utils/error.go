package utils

import (
	"fmt"
	"runtime/debug"
)

// GetStackWithError はエラーにスタックトレースを付与して返します
// 元のエラーはラップされるため errors.Is で判定できます
func GetStackWithError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w\nStack trace:\n%s", err, debug.Stack())
}
