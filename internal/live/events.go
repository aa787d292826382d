package live

import "encoding/json"

const (
	TypeNewRoomMessage    = "new_room_message"
	TypeVoiceJoin         = "voice_join"
	TypeNewPrivateMessage = "new_private_message"
)

// Event is a push notification. It marshals to a JSON object with a "type"
// discriminant next to the payload fields.
type Event interface {
	json.Marshaler
	Type() string
}

type NewRoomMessage struct {
	RoomID  int64  `json:"room_id"`
	From    string `json:"from"`
	Content string `json:"content"`
}

func (NewRoomMessage) Type() string { return TypeNewRoomMessage }

func (e NewRoomMessage) MarshalJSON() ([]byte, error) {
	type payload NewRoomMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

type VoiceJoin struct {
	RoomID   int64  `json:"room_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (VoiceJoin) Type() string { return TypeVoiceJoin }

func (e VoiceJoin) MarshalJSON() ([]byte, error) {
	type payload VoiceJoin
	return json.Marshal(struct {
		Type string `json:"type"`
		payload
	}{e.Type(), payload(e)})
}

type NewPrivateMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}

func (NewPrivateMessage) Type() string { return TypeNewPrivateMessage }

func (e NewPrivateMessage) MarshalJSON() ([]byte, error) {
	type payload NewPrivateMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		payload
	}{e.Type(), payload(e)})
}
