package syncer

import "github.com/dmitrijs2005/bizkeeper/internal/client/models"

// Winner identifies which side of a write-write conflict is authoritative.
type Winner int

const (
	WinnerRemote Winner = iota
	WinnerLocal
)

// Resolve compares two versions of the same logical record by last-write
// timestamp. The strictly newer side wins the whole record; equal timestamps
// resolve to remote, so two devices racing to upload near-simultaneous edits
// cannot both think they won.
//
// Pure function, no I/O.
func Resolve(local *models.Record, remote *models.RemoteRecord) Winner {
	if local.LastUpdated.After(remote.LastUpdated) {
		return WinnerLocal
	}
	return WinnerRemote
}
