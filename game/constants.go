package game

const (
	// MinNormalFloat32 is the smallest positive normal float32. The host ignores a gravity of
	// exactly zero, so the negation of this value is used to switch gravity off.
	MinNormalFloat32 = float32(0x1p-126)

	DefaultTargetGravity  = -MinNormalFloat32
	DefaultStickyForce    = float32(300)
	DefaultRepeatInterval = float32(0.05)
	DefaultRepeatDuration = float32(0.5)

	// DefaultTickRate is the rate, in Hz, the host delivers snapshots at.
	DefaultTickRate     = float32(120)
	DefaultMaxDeltaTime = float32(0.1)
)
