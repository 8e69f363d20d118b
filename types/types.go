// Package types holds the payload shapes exchanged over the bus. Keep them
// small and flat; every field is plain data.
package types

// OKReply acknowledges a control request.
type OKReply struct {
	OK bool
}

// ErrorReply carries a stable error code back to a control requester.
type ErrorReply struct {
	OK    bool
	Error string
}

// Reading is one sensor sample in the channel's reporting scale
// (tenths of a millivolt-derived unit for in channels, milli-degrees C
// for temperature channels).
type Reading struct {
	Channel int
	Label   string
	Value   int64
	TSms    int64
}

// ChannelInfo describes one sensor channel; published retained once at
// service start. Crit is zero for channels without a critical threshold.
type ChannelInfo struct {
	Channel int
	Label   string
	Crit    int64
}

// WatchdogState is the retained watchdog status.
type WatchdogState struct {
	Armed    bool
	TimeoutS int
	TSms     int64
}

// Heartbeat is the retained controller liveness state.
type Heartbeat struct {
	OK   bool
	TSms int64
}

// BoardInfo announces the platform the controller was brought up with.
type BoardInfo struct {
	Board      string
	Profile    string
	Subsystems []string
}
