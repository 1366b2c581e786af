package state

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	pingIDPrefix = "ping-"
	pingIDHexLen = 32
)

// PingID derives the stable identity of a ping. Equal inputs always yield
// the same id, so re-ingesting a message is detected without a scan.
func PingID(platform, messageID, timestamp string) string {
	sum := sha256.Sum256([]byte(platform + ":" + messageID + ":" + timestamp))
	return pingIDPrefix + hex.EncodeToString(sum[:])[:pingIDHexLen]
}

// ThreadID joins a platform with its own thread identifier. Platform
// identifiers are assumed unique within the platform.
func ThreadID(platform, threadIdentifier string) string {
	return platform + "-" + threadIdentifier
}
