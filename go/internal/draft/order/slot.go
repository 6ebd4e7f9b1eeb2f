// Package order resolves the draft order and answers "who picks at pick N".
package order

// RoundFor returns the 1-based round of a 1-based overall pick.
func RoundFor(pickIndex, picksPerRound int) int {
	if picksPerRound <= 0 || pickIndex <= 0 {
		return 0
	}
	return (pickIndex + picksPerRound - 1) / picksPerRound
}

// ParticipantAt is the single source of truth for which participant owns a
// pick. Even rounds walk the order in reverse when snake is set. Returns ""
// when the pick cannot be mapped.
func ParticipantAt(pickIndex, picksPerRound int, draftOrder []string, snake bool) string {
	if picksPerRound <= 0 || pickIndex <= 0 || len(draftOrder) < picksPerRound {
		return ""
	}
	slot := (pickIndex - 1) % picksPerRound
	if snake && RoundFor(pickIndex, picksPerRound)%2 == 0 {
		slot = picksPerRound - 1 - slot
	}
	return draftOrder[slot]
}

// Slot is one upcoming pick.
type Slot struct {
	Overall       int    `json:"overall"`
	Round         int    `json:"round"`
	ParticipantID string `json:"participant_id"`
}

// Upcoming lists up to n picks starting at from, stopping at totalPicks.
func Upcoming(from, n, totalPicks int, draftOrder []string, snake bool) []Slot {
	ppr := len(draftOrder)
	var slots []Slot
	for i := from; i < from+n && i <= totalPicks; i++ {
		slots = append(slots, Slot{
			Overall:       i,
			Round:         RoundFor(i, ppr),
			ParticipantID: ParticipantAt(i, ppr, draftOrder, snake),
		})
	}
	return slots
}
