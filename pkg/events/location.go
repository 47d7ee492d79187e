package events

import (
	"reflect"
	"runtime"
)

// FuncLocation returns the file and line where fn is defined. Hook and step
// definition executions use it as their action location. A non-function
// value yields the zero location.
func FuncLocation(fn any) SourceLocation {
	value := reflect.ValueOf(fn)
	if value.Kind() != reflect.Func || value.IsNil() {
		return SourceLocation{}
	}

	f := runtime.FuncForPC(value.Pointer())
	if f == nil {
		return SourceLocation{}
	}

	file, line := f.FileLine(f.Entry())
	return SourceLocation{URI: file, Line: int64(line)}
}
