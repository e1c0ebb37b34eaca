package capture

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	apperrors "github.com/kbukum/redkit/errors"
	"github.com/kbukum/redkit/logger"
)

// Fault is a captured panic or error.
type Fault struct {
	Message string
	Code    int
	File    string
	Line    int
	// Kind is the AppError code when the fault wraps one.
	Kind apperrors.ErrorCode
}

// Body renders the entry body "[code]:message".
func (f Fault) Body() string {
	return "[" + strconv.Itoa(f.Code) + "]:" + f.Message
}

// Fields returns the extra context of the entry.
func (f Fault) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if f.File != "" {
		fields[logger.FieldFile] = f.File
		fields[logger.FieldLine] = f.Line
	}
	if f.Kind != "" {
		fields[logger.FieldCode] = string(f.Kind)
	}
	return fields
}

// FaultFromError describes err as raised at file:line.
func FaultFromError(err error, file string, line int) Fault {
	f := Fault{Message: err.Error(), Code: Code(err), File: file, Line: line}
	if appErr, ok := apperrors.AsAppError(err); ok {
		f.Kind = appErr.Code
	}
	return f
}

// FaultFromPanic describes a recovered panic value.
func FaultFromPanic(r any, file string, line int) Fault {
	if err, ok := r.(error); ok {
		return FaultFromError(err, file, line)
	}
	return Fault{Message: fmt.Sprint(r), File: file, Line: line}
}

type exitCoder interface {
	ExitCode() int
}

// Code returns the numeric code of err: its ExitCode() when it has one, the
// errno of a system call failure, 2 for Go runtime errors, otherwise 0.
func Code(err error) int {
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	var re runtime.Error
	if errors.As(err, &re) {
		return 2
	}
	return 0
}

// panicSite returns the location that raised the panic being recovered: the
// first frame below runtime.gopanic outside the runtime.
func panicSite() (string, int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	panicking := false
	var fallback runtime.Frame
	for {
		frame, more := frames.Next()
		switch {
		case frame.Function == "runtime.gopanic":
			panicking = true
		case panicking && !isRuntimeFrame(frame.Function):
			return frame.File, frame.Line
		case !panicking && fallback.PC == 0 && !isOwnFrame(frame.Function):
			fallback = frame
		}
		if !more {
			break
		}
	}
	return fallback.File, fallback.Line
}

func isOwnFrame(fn string) bool {
	return strings.HasPrefix(fn, "github.com/kbukum/redkit/capture.") || isRuntimeFrame(fn)
}

// isRuntimeFrame matches runtime functions, including map and type helpers
// living in internal/runtime packages.
func isRuntimeFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") || strings.HasPrefix(fn, "internal/")
}
