package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AutopickKey is unique per autopick attempt so two triggers for the same pick
// never look like a replay of each other, even at the same instant.
func AutopickKey(draftID uuid.UUID, pickIndex int, now time.Time) string {
	return fmt.Sprintf("AUTOPICK-%s-%d-%d-%s", draftID, pickIndex, now.UnixNano(), uuid.NewString())
}
