package types

// RC is the outcome of reading and verifying a package.
type RC int

const (
	RCOK RC = iota
	RCNotFound
	RCFail
	RCNotTrusted
	RCNoKey
)

// Usable reports whether a header read with this outcome may be used.
// Trust problems are reported elsewhere and do not block header acquisition.
func (rc RC) Usable() bool {
	switch rc {
	case RCOK, RCNotTrusted, RCNoKey:
		return true
	default:
		return false
	}
}

func (rc RC) String() string {
	switch rc {
	case RCOK:
		return "OK"
	case RCNotFound:
		return "NOTFOUND"
	case RCFail:
		return "FAIL"
	case RCNotTrusted:
		return "NOTTRUSTED"
	case RCNoKey:
		return "NOKEY"
	default:
		return "UNKNOWN"
	}
}
