package websocket

// options holds connection configuration assembled from functional
// Options, grounded on Zereker-socket's Option func(*options) pattern
// (the teacher itself took no configuration at all).
type options struct {
	writeMask MaskPolicy
	readMask  bool // require incoming frames to be masked (server role)

	maxFrameSize int

	controlHandler ControlHandler
}

func defaultOptions() options {
	return options{
		writeMask:      RandomMask(),
		maxFrameSize:   DefaultFrameSize,
		controlHandler: DefaultControlHandler,
	}
}

// Option configures a Conn. See WithMaskPolicy, WithMaxFrameSize, and
// WithControlHandler.
type Option func(*options)

// WithMaskPolicy sets the mask policy applied to outgoing frames. Client
// connections default to RandomMask(); a server-role Conn should be
// constructed with Unmasked().
func WithMaskPolicy(p MaskPolicy) Option {
	return func(o *options) { o.writeMask = p }
}

// WithRequireMaskedReads rejects incoming frames that are not masked
// (the server-role expectation for client-to-server frames).
func WithRequireMaskedReads(require bool) Option {
	return func(o *options) { o.readMask = require }
}

// WithMaxFrameSize bounds the size of each frame a MultiFrameWriter-backed
// write emits, chunking larger writes across multiple continuation
// frames. It does not bound message size, only per-frame size.
func WithMaxFrameSize(n int) Option {
	return func(o *options) { o.maxFrameSize = n }
}

// WithControlHandler overrides the control-frame reaction (the default
// auto-pongs pings and surfaces ErrReceivedCloseFrame on close).
func WithControlHandler(h ControlHandler) Option {
	return func(o *options) { o.controlHandler = h }
}

// DefaultFrameSize is the chunk size WriteMessage uses when splitting a
// write across multiple frames, matching the teacher's default.
const DefaultFrameSize = 4096
