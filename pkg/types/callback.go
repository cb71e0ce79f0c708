package types

// CallbackType identifies the event a transaction notification reports.
type CallbackType int

const (
	CallbackInstProgress CallbackType = iota + 1
	CallbackInstStart
	// CallbackInstOpenFile asks the callback for the package file stream
	CallbackInstOpenFile
	// CallbackInstCloseFile tells the callback the stream is no longer used
	CallbackInstCloseFile
	CallbackUninstStart
	CallbackUninstStop
	CallbackScriptError
)

func (c CallbackType) String() string {
	switch c {
	case CallbackInstProgress:
		return "inst_progress"
	case CallbackInstStart:
		return "inst_start"
	case CallbackInstOpenFile:
		return "inst_open_file"
	case CallbackInstCloseFile:
		return "inst_close_file"
	case CallbackUninstStart:
		return "uninst_start"
	case CallbackUninstStop:
		return "uninst_stop"
	case CallbackScriptError:
		return "script_error"
	default:
		return "unknown"
	}
}
