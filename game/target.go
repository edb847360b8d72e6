package game

// Target is an enemy the wingman can attack. The host owns target data;
// the wingman only ever sees a snapshot copied at activation time and
// reports the ID back on elimination.
type Target struct {
	ID  string `json:"id"`
	Pos Vec3   `json:"pos"`
}

// SnapshotTargets copies a target list so later mutation by the host
// cannot alias into an in-flight activation.
func SnapshotTargets(targets []Target) []Target {
	if len(targets) == 0 {
		return nil
	}
	snap := make([]Target, len(targets))
	copy(snap, targets)
	return snap
}
