package connectutil

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
)

// CodeFor maps an engine outcome to a connect status code.
func CodeFor(err error) connect.Code {
	switch {
	case errors.Is(err, drafterr.ErrMissingIdempotencyKey),
		errors.Is(err, drafterr.ErrInvalidArgument),
		errors.Is(err, drafterr.ErrConfiguration):
		return connect.CodeInvalidArgument
	case errors.Is(err, drafterr.ErrDraftNotStarted),
		errors.Is(err, drafterr.ErrDraftNotActive),
		errors.Is(err, drafterr.ErrNotYourTurn),
		errors.Is(err, drafterr.ErrPickWindowExpired),
		errors.Is(err, drafterr.ErrPickWindowOpen),
		errors.Is(err, drafterr.ErrPlayerAlreadyDrafted),
		errors.Is(err, drafterr.ErrInvalidTransition),
		errors.Is(err, drafterr.ErrDraftNotOpen),
		errors.Is(err, drafterr.ErrPicksRecorded),
		errors.Is(err, drafterr.ErrNoPlayersAvailable):
		return connect.CodeFailedPrecondition
	case errors.Is(err, drafterr.ErrVersionConflict):
		return connect.CodeAborted
	case errors.Is(err, drafterr.ErrDraftNotFound),
		errors.Is(err, drafterr.ErrLeagueNotFound),
		errors.Is(err, drafterr.ErrSnapshotNotFound):
		return connect.CodeNotFound
	case errors.Is(err, drafterr.ErrPermissionDenied):
		return connect.CodePermissionDenied
	case errors.Is(err, drafterr.ErrSnapshotExists):
		return connect.CodeAlreadyExists
	}
	return connect.CodeInternal
}

// Error wraps err as a connect error carrying its kind as a detail.
func Error(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}

	code := CodeFor(err)
	cerr := connect.NewError(code, err)
	if detail, derr := connect.NewErrorDetail(wrapperspb.String(drafterr.Kind(err))); derr == nil {
		cerr.AddDetail(detail)
	}
	if code == connect.CodeInternal {
		log.Error().Err(err).Msg("internal error")
	}
	return cerr
}

// KindOf reads the kind detail back off a connect error. Empty if absent.
func KindOf(err error) string {
	var ce *connect.Error
	if !errors.As(err, &ce) {
		return ""
	}
	for _, d := range ce.Details() {
		msg, derr := d.Value()
		if derr != nil {
			continue
		}
		if s, ok := msg.(*wrapperspb.StringValue); ok {
			return s.GetValue()
		}
	}
	return ""
}
