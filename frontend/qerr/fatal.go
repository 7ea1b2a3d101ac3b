package qerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Fatal is an unrecoverable failure of an inference run: an inconsistency
// in the input or a defect upstream of the traversal. A run that hits a
// Fatal produces no problem instance.
type Fatal struct {
	code ErrCode
	err  error
}

func (f *Fatal) Error() string {
	return fmt.Sprintf("(Q%03d %s) %s", f.code, f.code, f.err.Error())
}

func (f *Fatal) Code() ErrCode { return f.code }
func (f *Fatal) Unwrap() error { return f.err }

// Format prints the stack of where the run was aborted with %+v
func (f *Fatal) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "(Q%03d %s) %+v", f.code, f.code, f.err)
		return
	}
	_, _ = fmt.Fprint(s, f.Error())
}

// Abort stops the current run. It never returns: the panic is turned back
// into an error by Catch at the run boundary.
func Abort(code ErrCode, format string, args ...any) {
	panic(&Fatal{code: code, err: errors.Errorf(format, args...)})
}

// Catch runs body and returns the Fatal it aborted with, if any.
// Panics that are not a Fatal are propagated unchanged.
func Catch(body func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if fatal, ok := r.(*Fatal); ok {
			err = fatal
			return
		}
		panic(r)
	}()
	body()
	return nil
}

// IsFatal reports whether err is a Fatal with the given code
func IsFatal(err error, code ErrCode) bool {
	var fatal *Fatal
	return errors.As(err, &fatal) && fatal.code == code
}
