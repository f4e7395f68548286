package goroutine

import (
	"runtime/debug"

	"github.com/creatilink/marketplace-backend/internal/logger"
)

// SafeGo запускает горутину с перехватом panic: упавшая фоновая задача
// логируется, но не валит процесс.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithField("stack", string(debug.Stack())).
					Errorf("panic в горутине: %v", r)
			}
		}()
		fn()
	}()
}
