package websocket

// Message types pushed to the child's client
const (
	// TypeStatus carries the periodic time-limit check result
	TypeStatus = "screen_time:status"

	// TypeExceeded tells the client to sign out and leave; the connection closes afterwards
	TypeExceeded = "screen_time:exceeded"
)

// Message is the envelope of every server message
type Message struct {
	Type     string      `json:"type"`
	Data     interface{} `json:"data,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

// exceededRedirect is where the client goes after signing out
const exceededRedirect = "/"
