package referral

import (
	"strings"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
)

// Actor distinguishes who asks for a status change.
type Actor int

const (
	ActorDoctor Actor = iota
	ActorSweep
)

// transitions lists every legal status change and who may make it.
// Terminal states have no entry.
var transitions = map[repo.ReferralStatus]map[repo.ReferralStatus]Actor{
	repo.ReferralStatusActive: {
		repo.ReferralStatusCompleted: ActorDoctor,
		repo.ReferralStatusRevoked:   ActorDoctor,
		repo.ReferralStatusExpired:   ActorSweep,
	},
}

// CanTransition reports whether actor may move a referral from -> to.
func CanTransition(from, to repo.ReferralStatus, actor Actor) bool {
	allowed, ok := transitions[from][to]
	return ok && allowed == actor
}

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(s string) (repo.ReferralStatus, error) {
	st := repo.ReferralStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrUnknownStatus
	}
	return st, nil
}
