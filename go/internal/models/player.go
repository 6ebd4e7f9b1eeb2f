package models

// Player is a draftable player from the pool. Rating and FantasyPoints are the
// ranking signals used by autopick.
type Player struct {
	ID            string  `json:"id"`
	FullName      string  `json:"full_name"`
	Position      string  `json:"position"`
	Team          string  `json:"team"`
	College       string  `json:"college"`
	Eligible      bool    `json:"eligible"`
	Rating        float64 `json:"rating"`
	FantasyPoints float64 `json:"fantasy_points"`
}
