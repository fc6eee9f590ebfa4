package bitstream

const (
	coordIntBits    = 14
	coordFracBits   = 5
	coordDenom      = 1 << coordFracBits
	coordResolution = 1.0 / coordDenom
)
