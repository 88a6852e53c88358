package common

import (
	"bytes"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Vote adds ballot of from for the decision with specific 'id' stored under
// the key and returns amount of unique voters for that decision. Ballots
// which have not been updated for more than ttl blocks are dropped,
// zero ttl keeps ballots forever.
func Vote(st Storage, key, id []byte, from util.Uint160, height, ttl uint32) (int, error) {
	candidates, err := getBallots(st, key)
	if err != nil {
		return 0, err
	}

	var (
		newCandidates = make(ballots, 0, len(candidates)+1)
		found         = -1
	)

	for i := 0; i < len(candidates); i++ {
		cnd := candidates[i]

		if ttl != 0 && height-cnd.Height > ttl {
			continue
		}

		if bytes.Equal(cnd.ID, id) {
			voters := cnd.Voters

			for j := range voters {
				if voters[j].Equals(from) {
					return len(voters), nil
				}
			}

			voters = append(voters, from)
			cnd = Ballot{ID: id, Voters: voters, Height: height}
			found = len(voters)
		}

		newCandidates = append(newCandidates, cnd)
	}

	if found < 0 {
		newCandidates = append(newCandidates, Ballot{
			ID:     id,
			Voters: []util.Uint160{from},
			Height: height})
		found = 1
	}

	return found, SetSerialized(st, key, &newCandidates)
}

// RemoveVotes clears ballots of the decision that has been accepted.
func RemoveVotes(st Storage, key, id []byte) error {
	candidates, err := getBallots(st, key)
	if err != nil {
		return err
	}

	newCandidates := make(ballots, 0, len(candidates))
	for i := 0; i < len(candidates); i++ {
		if !bytes.Equal(candidates[i].ID, id) {
			newCandidates = append(newCandidates, candidates[i])
		}
	}

	return SetSerialized(st, key, &newCandidates)
}

// Voters returns accounts which have voted for the decision with
// specific 'id'.
func Voters(st Storage, key, id []byte) ([]util.Uint160, error) {
	candidates, err := getBallots(st, key)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if bytes.Equal(candidates[i].ID, id) {
			return candidates[i].Voters, nil
		}
	}
	return nil, nil
}

// getBallots returns deserialized slice of vote ballots.
func getBallots(st Storage, key []byte) (ballots, error) {
	var res ballots
	if _, err := GetSerialized(st, key, &res); err != nil {
		return nil, err
	}
	return res, nil
}
