package identity

import (
	"strings"

	"github.com/google/uuid"
)

// NewRandomID mints a canonical id for a candidate without a stable provider id.
func NewRandomID() string {
	return strings.ToUpper(uuid.NewString())
}

// DeterministicID derives the canonical id for a provider-native id. The same
// (provider, id) pair always yields the same value, across restarts and before
// the first write lands.
func DeterministicID(provider, providerID string) string {
	return strings.ToUpper(uuid.NewSHA1(uuid.NameSpaceURL, []byte(provider+"_"+providerID)).String())
}
