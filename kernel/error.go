package kernel

// Error describes an error raised by a kernel subsystem. Kernel errors are
// always declared as global *Error variables and returned by pointer: the Go
// allocator is not available during early boot, ruling out errors.New and
// anything else that allocates.
type Error struct {
	// Module is the name of the subsystem that raised the error.
	Module string

	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
