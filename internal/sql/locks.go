package sql

// Cluster-unique advisory lock IDs, ensuring a background job runs on only
// one daemon in a cluster at any time.
const (
	SweeperLockID int64 = 910541
)
