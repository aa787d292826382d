package live

// Drop reasons reported to a Recorder.
const (
	ReasonNotConnected = "not_connected"
	ReasonBufferFull   = "buffer_full"
	ReasonClosed       = "closed"
	ReasonEncode       = "encode"
)

// Recorder observes live traffic. The metrics adapter implements it.
type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	Delivered(eventType string)
	Dropped(eventType, reason string)
}

type NopRecorder struct{}

func (NopRecorder) ConnectionOpened()      {}
func (NopRecorder) ConnectionClosed()      {}
func (NopRecorder) Delivered(string)       {}
func (NopRecorder) Dropped(string, string) {}
