package common

import (
	"fmt"
	"runtime"

	"github.com/ternarybob/arbor"
)

// SafeGo runs fn on a new goroutine and recovers panics, logging them
// instead of crashing the process. onPanic, when non-nil, runs after
// recovery so the caller can fail in-flight work cleanly.
func SafeGo(logger arbor.ILogger, name string, fn func(), onPanic func(r interface{})) {
	go func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)

			if logger != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(buf[:n])).
					Msg("Recovered from panic in goroutine")
			}

			if onPanic != nil {
				onPanic(r)
			}
		}()

		fn()
	}()
}
