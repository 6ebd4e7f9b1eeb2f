package order

import (
	"fmt"
	"slices"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
)

// Source names where a resolved order came from.
type Source string

const (
	SourcePersisted Source = "persisted"
	SourceOverride  Source = "override"
	SourceMembers   Source = "members"
)

// Input is everything the builder reads. Persisted is the order already
// recorded on the draft, if any.
type Input struct {
	Persisted []string
	Config    models.LeagueConfig
}

// Result is a resolved order.
type Result struct {
	Order    []string
	Source   Source
	Unmapped []string
}

// Build resolves the draft order. The first non-empty source wins: persisted
// order, commissioner override, then members in join order. Owner ids are
// mapped to team ids; entries that map to nothing are kept as-is.
func Build(in Input) (*Result, error) {
	raw, src := pickSource(in)
	if len(raw) == 0 {
		return nil, fmt.Errorf("league %s has no order source: %w", in.Config.League.ID, drafterr.ErrConfiguration)
	}

	teamIDs := make(map[string]bool, len(in.Config.Teams))
	byOwner := make(map[string]string, len(in.Config.Teams))
	for _, t := range in.Config.Teams {
		teamIDs[t.ID.String()] = true
		if t.OwnerID != "" {
			byOwner[t.OwnerID] = t.ID.String()
		}
	}

	res := &Result{Source: src, Order: make([]string, 0, len(raw))}
	seen := make(map[string]bool, len(raw))
	for _, entry := range raw {
		id := entry
		switch {
		case teamIDs[entry]:
		case byOwner[entry] != "":
			id = byOwner[entry]
		default:
			res.Unmapped = append(res.Unmapped, entry)
		}
		if id == "" {
			return nil, fmt.Errorf("empty participant id in %s order: %w", src, drafterr.ErrConfiguration)
		}
		if seen[id] {
			return nil, fmt.Errorf("participant %s appears twice in %s order: %w", id, src, drafterr.ErrConfiguration)
		}
		seen[id] = true
		res.Order = append(res.Order, id)
	}

	if max := in.Config.League.MaxTeams; max > 0 && len(res.Order) > max {
		return nil, fmt.Errorf("order has %d participants, league allows %d: %w", len(res.Order), max, drafterr.ErrConfiguration)
	}

	if len(res.Unmapped) > 0 {
		log.Warn().
			Str("league_id", in.Config.League.ID.String()).
			Strs("unmapped", res.Unmapped).
			Msg("draft order contains entries with no matching team")
	}
	return res, nil
}

func pickSource(in Input) ([]string, Source) {
	if len(in.Persisted) > 0 {
		return in.Persisted, SourcePersisted
	}
	if len(in.Config.League.DraftOrderOverride) > 0 {
		return in.Config.League.DraftOrderOverride, SourceOverride
	}
	joined := slices.Clone(in.Config.Members)
	sort.SliceStable(joined, func(i, j int) bool { return joined[i].JoinedAt.Before(joined[j].JoinedAt) })
	members := make([]string, 0, len(joined))
	for _, m := range joined {
		members = append(members, m.UserID)
	}
	return members, SourceMembers
}
