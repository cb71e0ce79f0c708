package types

// ElementType is the disposition of a transaction element. Values are bits so
// that element iteration can filter on a mask.
type ElementType uint32

const (
	// Added marks an element that installs a package
	Added ElementType = 1 << 0

	// Removed marks an element that erases an installed package
	Removed ElementType = 1 << 1

	// AnyElement matches both dispositions when filtering
	AnyElement = Added | Removed
)

// String returns the verb used in user facing messages
func (t ElementType) String() string {
	switch t {
	case Added:
		return "install"
	case Removed:
		return "erase"
	default:
		return "???"
	}
}
