package main

// Exit code convention, shared by all subcommands:
// 0 pass (maintained/improved/target achieved), 1 regression or drift,
// 2 precondition failure (missing baseline dir, missing drift source).
const (
	ExitPass         = 0
	ExitRegression   = 1
	ExitPrecondition = 2
)

// ExitError carries a process exit code out of a subcommand. Execute maps
// it to os.Exit after cobra has printed the message.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the underlying message.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error for errors.Is/As.
func (e *ExitError) Unwrap() error {
	return e.Err
}
