package model

// WebSocket message types.
type WSMessageType string

const (
	WSMessageTypeJob  WSMessageType = "job"
	WSMessageTypePing WSMessageType = "ping"
	WSMessageTypePong WSMessageType = "pong"
)

// WSMessage is the bare control message clients send and receive.
type WSMessage struct {
	Type WSMessageType `json:"type"`
}

// WSJobMessage carries a job record to subscribers once the job reaches a
// terminal state.
type WSJobMessage struct {
	Type WSMessageType `json:"type"`
	Job  *Job          `json:"job"`
}
