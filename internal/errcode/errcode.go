package errcode

// Error code convention:
// - 0: no error
// - 4xxx: recoverable business errors (missing resource, flow continues)
// - 5xxx: system errors (abort the flow)
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
)
