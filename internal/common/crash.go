package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// CrashLogDir is where crash reports are written. InstallCrashHandler
// overrides it from main.
var CrashLogDir = "./logs"

// InstallCrashHandler prepares the crash report directory. Call it once at
// the top of main, before anything can panic.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}
	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "crash handler: cannot create %s: %v\n", CrashLogDir, err)
	}
}

// RecoverWithCrashFile recovers a panic, writes a crash report and exits
// with a non-zero status.
//
// Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, GetStackTrace())
		os.Exit(1)
	}
}

// WriteCrashFile writes a crash report for panicVal and returns the report
// path. When the file cannot be written the report goes to stderr instead.
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	crashPath := filepath.Join(CrashLogDir, fmt.Sprintf("crash-%s.log", time.Now().Format("2006-01-02T15-04-05")))

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var report strings.Builder
	fmt.Fprintf(&report, "metaseek crash report\n")
	fmt.Fprintf(&report, "time: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&report, "version: %s\n\n", GetFullVersion())
	fmt.Fprintf(&report, "panic: %v\n\n", panicVal)
	fmt.Fprintf(&report, "-- panicking goroutine --\n%s\n", stackTrace)
	fmt.Fprintf(&report, "-- all goroutines --\n%s\n", GetAllGoroutineStacks())
	fmt.Fprintf(&report, "-- runtime --\n")
	fmt.Fprintf(&report, "goroutines=%d cpus=%d os=%s arch=%s\n",
		runtime.NumGoroutine(), runtime.NumCPU(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&report, "alloc=%dMB sys=%dMB gc=%d\n",
		memStats.Alloc/1024/1024, memStats.Sys/1024/1024, memStats.NumGC)

	if err := os.WriteFile(crashPath, []byte(report.String()), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "crash handler: cannot write %s: %v\n", crashPath, err)
		fmt.Fprint(os.Stderr, report.String())
		return ""
	}

	fmt.Fprintf(os.Stderr, "\nfatal crash, report saved to %s\npanic: %v\n", crashPath, panicVal)
	return crashPath
}

// GetAllGoroutineStacks dumps every goroutine's stack, growing the buffer
// until the dump fits. Capped at 64MB.
func GetAllGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for len(buf) <= 64*1024*1024 {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
	return string(buf[:runtime.Stack(buf, true)])
}

// GetStackTrace returns the calling goroutine's stack.
func GetStackTrace() string {
	buf := make([]byte, 8192)
	return string(buf[:runtime.Stack(buf, false)])
}
