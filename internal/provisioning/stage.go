package provisioning

import "fmt"

// Stage はアカウント作成ワークフローの状態を表す。
type Stage string

const (
	StageStart               Stage = "start"
	StageIdentityCreated     Stage = "identity_created"
	StageProfileCreated      Stage = "profile_created"
	StageDependentsAttempted Stage = "dependents_attempted"
	StageDone                Stage = "done"
	StageRollingBack         Stage = "rolling_back"
	StageFailed              Stage = "failed"
)

// transitions は許可された状態遷移。
// 1リクエストは前進のみで、DoneとFailedは終端状態。
var transitions = map[Stage][]Stage{
	StageStart:               {StageIdentityCreated, StageFailed},
	StageIdentityCreated:     {StageProfileCreated, StageRollingBack},
	StageProfileCreated:      {StageDependentsAttempted},
	StageDependentsAttempted: {StageDone},
	StageRollingBack:         {StageFailed},
}

// Terminal は終端状態かどうかを返す。
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// CanTransition はfromからtoへの遷移が許可されているかを返す。
func CanTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// tracker は1回のワークフロー実行の状態と遷移履歴を保持する。
type tracker struct {
	stage   Stage
	history []Stage
}

func newTracker() *tracker {
	return &tracker{stage: StageStart, history: []Stage{StageStart}}
}

// advance は状態を遷移させる。未定義の遷移は実装の誤りなのでpanicする。
func (t *tracker) advance(to Stage) {
	if !CanTransition(t.stage, to) {
		panic(fmt.Sprintf("provisioning: invalid stage transition %s -> %s", t.stage, to))
	}
	t.stage = to
	t.history = append(t.history, to)
}
