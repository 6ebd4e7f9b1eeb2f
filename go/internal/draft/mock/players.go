package mock

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/mcdev12/livedraft/go/internal/models"
)

// Positions in the order the synthetic pool cycles through them.
var Positions = []string{"QB", "RB", "WR", "TE", "K", "DEF"}

// positionWeights skews the pool towards skill positions the way a real
// fantasy pool is.
var positionWeights = map[string]int{
	"QB":  3,
	"RB":  6,
	"WR":  7,
	"TE":  3,
	"K":   1,
	"DEF": 1,
}

var (
	firstNames = []string{
		"Aaron", "Bryce", "Caleb", "Dak", "Elijah", "Frank", "Garrett", "Hunter",
		"Isaiah", "Jalen", "Kyler", "Lamar", "Marcus", "Nico", "Omar", "Patrick",
		"Quinn", "Rashee", "Saquon", "Travis", "Tyreek", "Victor", "Will", "Zay",
	}
	lastNames = []string{
		"Adams", "Barkley", "Chase", "Diggs", "Evans", "Fields", "Gibbs", "Hall",
		"Irving", "Jefferson", "Kelce", "Lamb", "Mixon", "Nabers", "Olave", "Pitts",
		"Robinson", "Smith", "Taylor", "Waddle", "Walker", "Williams", "Young", "Zeller",
	}
	nflTeams = []string{
		"ARI", "ATL", "BAL", "BUF", "CAR", "CHI", "CIN", "CLE", "DAL", "DEN", "DET", "GB",
		"HOU", "IND", "JAX", "KC", "LAC", "LAR", "LV", "MIA", "MIN", "NE", "NO", "NYG",
		"NYJ", "PHI", "PIT", "SEA", "SF", "TB", "TEN", "WAS",
	}
	colleges = []string{
		"Alabama", "Clemson", "Florida", "Georgia", "LSU", "Michigan", "Ohio State",
		"Oklahoma", "Oregon", "Penn State", "Texas", "USC", "Utah", "Wisconsin",
	}
)

// seedRand derives a generator from seed so the same seed always yields the
// same pool and the same ordering.
func seedRand(seed string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	s := h.Sum64()
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// SyntheticPlayers builds a deterministic pool of size players from seed.
// Ratings fall off with a little noise so the best available player is
// unambiguous but not simply the first generated.
func SyntheticPlayers(seed string, size int) []models.Player {
	r := seedRand(seed)

	var weighted []string
	for _, pos := range Positions {
		for i := 0; i < positionWeights[pos]; i++ {
			weighted = append(weighted, pos)
		}
	}

	players := make([]models.Player, 0, size)
	for i := 0; i < size; i++ {
		pos := weighted[r.IntN(len(weighted))]
		team := nflTeams[r.IntN(len(nflTeams))]

		name := fmt.Sprintf("%s %s", firstNames[r.IntN(len(firstNames))], lastNames[r.IntN(len(lastNames))])
		college := colleges[r.IntN(len(colleges))]
		if pos == "DEF" {
			name = team + " Defense"
			college = ""
		}

		rating := 99 - float64(i)*60/float64(max(size, 1)) + r.Float64()*4 - 2
		points := rating*3.2 + r.Float64()*25
		players = append(players, models.Player{
			ID:            fmt.Sprintf("mock-%04d", i+1),
			FullName:      name,
			Position:      pos,
			Team:          team,
			College:       college,
			Eligible:      true,
			Rating:        math.Round(rating*10) / 10,
			FantasyPoints: math.Round(points*10) / 10,
		})
	}
	return players
}
