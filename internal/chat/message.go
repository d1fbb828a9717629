package chat

// Actions a client may send. Anything else closes the connection.
const (
	ActionPublishRoom = "publish-room"
	ActionDisconnect  = "disconnect"
)

// Close reasons sent to the peer before dropping it.
const (
	CloseReasonInvalid     = "invalid request"
	CloseReasonUnsupported = "unsupported action"
)

// ClientMessage is the inbound wire payload.
type ClientMessage struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}
