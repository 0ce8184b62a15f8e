package comment

import "time"

// AuthorDTO identifies who wrote a comment without preloading the user row.
type AuthorDTO struct {
	Type string `json:"type"` // "user" | "system"
	ID   *uint  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type CommentDTO struct {
	ID        uint      `json:"id"`
	DealID    uint      `json:"dealId"`
	Text      string    `json:"text"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"createdAt"`
	Author    AuthorDTO `json:"author"`
}

func toDTO(c Comment) CommentDTO {
	out := CommentDTO{
		ID:        c.ID,
		DealID:    c.DealID,
		Text:      c.Text,
		System:    c.System,
		CreatedAt: c.CreatedAt,
	}
	if c.System {
		out.Author = AuthorDTO{Type: "system", Name: "System"}
		return out
	}
	if c.UserID > 0 {
		id := c.UserID
		out.Author = AuthorDTO{Type: "user", ID: &id, Name: "User"}
		return out
	}
	out.Author = AuthorDTO{Type: "user", Name: "User"}
	return out
}

func toDTOs(list []Comment) []CommentDTO {
	out := make([]CommentDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toDTO(c))
	}
	return out
}
