package model

// Comment is an RSVP entry shown in the public thread.
type Comment struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Message     string  `json:"message"`
	GuestsCount int     `json:"guests_count"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	LikesCount  int     `json:"likes_count"`
	Liked       bool    `json:"liked"`
	Replies     []Reply `json:"replies"`
}

// Attending reports whether the author confirmed attendance.
func (c Comment) Attending() bool {
	return c.GuestsCount > 0
}

// Reply is a single-level answer to a Comment.
type Reply struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// LikeState is the server's view of a like toggle.
type LikeState struct {
	LikesCount int  `json:"likes_count"`
	Liked      bool `json:"liked"`
}

// RSVPInput is the body of a new RSVP submission. Token identifies an invited
// guest; Name is used for anonymous visitors.
type RSVPInput struct {
	GuestsCount int    `json:"guests_count"`
	Message     string `json:"message"`
	EventID     string `json:"event_id,omitempty"`
	EventSlug   string `json:"event_slug,omitempty"`
	Token       string `json:"token,omitempty"`
	Name        string `json:"name,omitempty"`
}
