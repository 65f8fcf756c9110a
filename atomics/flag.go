package atomics

// Flag is an atomic boolean built over Int64, following the convention that
// 0 is false and -1 is true. The zero value is a cleared flag.
type Flag struct {
	cell Int64
}

// NewFlag returns a flag initialised to value.
func NewFlag(value bool) *Flag {
	f := new(Flag)
	f.Set(value)
	return f
}

// Set stores value.
func (f *Flag) Set(value bool) {
	if value {
		f.cell.Store(-1)
	} else {
		f.cell.Store(0)
	}
}

// Get returns the current value.
func (f *Flag) Get() bool { return f.cell.Load() != 0 }
