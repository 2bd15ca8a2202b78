package wire

// Limits constrains encode/decode memory use.
type Limits struct {
	MaxMessageBytes int
}

// DefaultLimits allows the largest message a u32 reply length can express
// in practice (16 MiB), matching the big-requests ceiling.
func DefaultLimits() Limits {
	return Limits{
		MaxMessageBytes: 16 * 1024 * 1024,
	}
}

// Allows reports whether a message of n bytes fits within the limits. A
// zero limit means unbounded.
func (l Limits) Allows(n int) bool {
	return l.MaxMessageBytes <= 0 || n <= l.MaxMessageBytes
}
