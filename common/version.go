package common

import "fmt"

const (
	major = 0
	minor = 3
	patch = 0

	// Versions from which an update should be performed.
	// These should be used in a group (so prevMinor can be equal to minor if there are
	// any migration routines.
	prevMajor = 0
	prevMinor = 2
	prevPatch = 0

	Version = major*1_000_000 + minor*1_000 + patch

	PrevVersion = prevMajor*1_000_000 + prevMinor*1_000 + prevPatch

	// ErrVersionMismatch is returned by CheckVersion in case of error.
	ErrVersionMismatch = "previous version mismatch"

	// ErrAlreadyUpdated is returned by CheckVersion if current version equals to version contract
	// is being updated from.
	ErrAlreadyUpdated = "contract is already of the latest version"
)

// CheckVersion checks that previous version is more than PrevVersion to ensure migrating contract data
// was done successfully.
func CheckVersion(from int64) error {
	if from < PrevVersion {
		return fmt.Errorf("%w: %s: expected >=%d", ErrPrecondition, ErrVersionMismatch, PrevVersion)
	}
	if from == Version {
		return fmt.Errorf("%w: %s: %d", ErrPrecondition, ErrAlreadyUpdated, Version)
	}
	return nil
}
