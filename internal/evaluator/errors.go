package evaluator

import "github.com/pkg/errors"

// indexError reports an out-of-range list/string index or slice.
func indexError(format string, args ...interface{}) error {
	return errors.Errorf("index error: "+format, args...)
}

// arityError reports a builtin called with the wrong number of arguments.
func arityError(format string, args ...interface{}) error {
	return errors.Errorf("arity error: "+format, args...)
}

// valueError reports a builtin argument that is the right type but an
// invalid value (e.g. a negative repeat count, an unparseable number
// string).
func valueError(format string, args ...interface{}) error {
	return errors.Errorf("value error: "+format, args...)
}
