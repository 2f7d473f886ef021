package models

// Activity is one entry in the social feed.
type Activity struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ActorID   string `json:"actorId"`
	SessionID string `json:"sessionId,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
	Summary   string `json:"summary"`
	CreatedAt int64  `json:"createdAt"`
}
