package rediskey

import "fmt"

// Key namespaces shared by every engine process.
const (
	DistributionPrefix = "distribution"
	ScorePassPrefix    = "score_pass"
	SequencePrefix     = "seq"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildDistributionKey returns "distribution:{campaignID}", the advisory lock
// key guarding a campaign's payout run.
func BuildDistributionKey(campaignID string) string {
	return NamespaceKey(DistributionPrefix, campaignID)
}

// BuildScorePassKey returns "score_pass:{campaignID}".
func BuildScorePassKey(campaignID string) string {
	return NamespaceKey(ScorePassPrefix, campaignID)
}

// BuildSequenceKey returns "seq:{name}".
func BuildSequenceKey(name string) string {
	return NamespaceKey(SequencePrefix, name)
}
