package log

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

type formatter struct {
	pattern string
	time    string
}

// Format supports unified log output format that has %time, %level, %field, %msg, %caller, %func, %goroutine.
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	output := f.pattern
	output = strings.Replace(output, "%time", entry.Time.Format(f.time), 1)
	output = strings.Replace(output, "%level", entry.Level.String(), 1)
	output = strings.Replace(output, "%field", buildFields(entry), 1)
	output = strings.Replace(output, "%msg", entry.Message, 1)
	if strings.Contains(output, "%caller") || strings.Contains(output, "%func") {
		frame, ok := callerFrame()
		output = strings.Replace(output, "%caller", getCaller(frame, ok), 1)
		output = strings.Replace(output, "%func", getFunc(frame, ok), 1)
	}
	output = strings.Replace(output, "%goroutine", getGoroutineID(), 1)
	return []byte(output), nil
}

// callerFrame walks up to the first frame outside logrus and this package.
func callerFrame() (runtime.Frame, bool) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "sirupsen/logrus") &&
			!strings.Contains(frame.Function, "/internal/log.") {
			return frame, true
		}
		if !more {
			return runtime.Frame{}, false
		}
	}
}

// getCaller renders package/file.go:line.
func getCaller(frame runtime.Frame, ok bool) string {
	if !ok {
		return "unknown"
	}
	file := frame.File
	if slashIdx := strings.LastIndex(file, "/"); slashIdx != -1 && slashIdx+1 < len(file) {
		file = file[slashIdx+1:]
	}
	pkg := ""
	if frame.Function != "" {
		funcParts := strings.Split(frame.Function, ".")
		if len(funcParts) > 1 {
			pkgParts := strings.Split(funcParts[0], "/")
			pkg = pkgParts[len(pkgParts)-1]
		}
	}
	return fmt.Sprintf("%s/%s:%d", pkg, file, frame.Line)
}

// getFunc keeps only the method or function name.
func getFunc(frame runtime.Frame, ok bool) string {
	if !ok {
		return "unknown"
	}
	funcName := frame.Function
	if dotIdx := strings.LastIndex(funcName, "."); dotIdx != -1 && dotIdx+1 < len(funcName) {
		return funcName[dotIdx+1:]
	}
	return funcName
}

func getGoroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	stack := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	idField := strings.Fields(stack)
	if len(idField) > 0 {
		return idField[0]
	}
	return "unknown"
}

func buildFields(entry *logrus.Entry) string {
	fields := make([]string, 0, len(entry.Data))
	for key, val := range entry.Data {
		stringVal, ok := val.(string)
		if !ok {
			stringVal = fmt.Sprint(val)
		}
		fields = append(fields, key+"="+stringVal)
	}
	sort.Strings(fields)
	return strings.Join(fields, ",")
}
