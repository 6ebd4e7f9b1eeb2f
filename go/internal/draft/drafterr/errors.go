// Package drafterr holds the typed outcomes of draft engine operations.
package drafterr

import "errors"

var (
	// ErrConfiguration means the draft order could not be built.
	ErrConfiguration     = errors.New("draft configuration error")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrInvalidArgument   = errors.New("invalid argument")

	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrDraftNotStarted       = errors.New("draft has not started")
	ErrDraftNotActive        = errors.New("draft is not active")
	ErrNotYourTurn           = errors.New("participant is not on the clock")
	ErrPickWindowExpired     = errors.New("pick window has expired")
	ErrPlayerAlreadyDrafted  = errors.New("player already drafted")

	// ErrVersionConflict is expected under concurrency. Re-read and re-evaluate.
	ErrVersionConflict    = errors.New("snapshot version conflict")
	ErrNoPlayersAvailable = errors.New("no eligible players available")
	// ErrDuplicatePickIndex should be unreachable. Treat as a bug.
	ErrDuplicatePickIndex = errors.New("duplicate pick index")

	ErrDraftNotFound    = errors.New("draft not found")
	ErrLeagueNotFound   = errors.New("league not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotExists   = errors.New("snapshot already exists")
	ErrDraftNotOpen     = errors.New("draft start time has not been reached")
	ErrPicksRecorded    = errors.New("picks have already been recorded")
	ErrPermissionDenied = errors.New("permission denied")
	ErrPickWindowOpen   = errors.New("pick window is still open")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrConfiguration, "ConfigurationError"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrInvalidArgument, "InvalidArgument"},
	{ErrMissingIdempotencyKey, "MissingIdempotencyKey"},
	{ErrDraftNotStarted, "DraftNotStarted"},
	{ErrDraftNotActive, "DraftNotActive"},
	{ErrNotYourTurn, "NotYourTurn"},
	{ErrPickWindowExpired, "PickWindowExpired"},
	{ErrPlayerAlreadyDrafted, "PlayerAlreadyDrafted"},
	{ErrVersionConflict, "VersionConflict"},
	{ErrNoPlayersAvailable, "NoPlayersAvailable"},
	{ErrDuplicatePickIndex, "DuplicatePickIndex"},
	{ErrDraftNotFound, "DraftNotFound"},
	{ErrLeagueNotFound, "LeagueNotFound"},
	{ErrSnapshotNotFound, "SnapshotNotFound"},
	{ErrSnapshotExists, "SnapshotExists"},
	{ErrDraftNotOpen, "DraftNotOpen"},
	{ErrPicksRecorded, "PicksRecorded"},
	{ErrPermissionDenied, "PermissionDenied"},
	{ErrPickWindowOpen, "PickWindowOpen"},
}

// Kind returns the stable name of the first typed outcome err wraps, or
// "Internal" when err is not one of ours.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

// IsValidation reports whether err is an expected, user-facing pick outcome.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrMissingIdempotencyKey),
		errors.Is(err, ErrDraftNotStarted),
		errors.Is(err, ErrDraftNotActive),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrPickWindowExpired),
		errors.Is(err, ErrPickWindowOpen),
		errors.Is(err, ErrPlayerAlreadyDrafted):
		return true
	}
	return false
}
