package transport

import (
	"crypto/sha256"
	"encoding/hex"

	"courier/internal/domain"
)

// Topic derivation contexts. Versioned alongside the key contexts.
const dmTopicContext = "dm-topic-v1:"

// TopicForDM derives the deterministic topic for a DM. Both participants
// compute the same topic regardless of argument order because the pair is
// sorted before hashing.
func TopicForDM(a, b domain.Address) string {
	lo, hi := domain.SortAddresses(a, b)
	sum := sha256.Sum256([]byte(dmTopicContext + lo.String() + ":" + hi.String()))
	return "dm-" + hex.EncodeToString(sum[:16])
}

// TopicForGroup derives the topic for a group from its generated ID.
func TopicForGroup(groupID string) string {
	return "group-" + groupID
}
