package absence

import (
	"fmt"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
)

// StageRoles maps each decidable stage to the roles permitted to decide at it
var StageRoles = map[Stage][]user.Role{
	StageSupervisor: {user.RoleSupervisor},
	StageManager:    {user.RoleManager},
	StageHR:         {user.RoleHR},
}

// nextStage is the approval chain; HR approval completes the request
var nextStage = map[Stage]Stage{
	StageSupervisor: StageManager,
	StageManager:    StageHR,
	StageHR:         StageCompleted,
}

// stageAudience lists who must be told when a request arrives at a pending stage
var stageAudience = map[Stage]user.Role{
	StageManager: user.RoleManager,
	StageHR:      user.RoleHR,
}

// RoleMayDecide reports whether role is permitted to decide at stage
func RoleMayDecide(role user.Role, stage Stage) bool {
	for _, r := range StageRoles[stage] {
		if r == role {
			return true
		}
	}
	return false
}

// StagesForRole returns the stages a role may decide at
func StagesForRole(role user.Role) []Stage {
	var stages []Stage
	for _, s := range []Stage{StageSupervisor, StageManager, StageHR} {
		if RoleMayDecide(role, s) {
			stages = append(stages, s)
		}
	}
	return stages
}

// Outcome is the result of applying a decision at a stage
type Outcome struct {
	From           State
	To             State
	NotifyEmployee bool
	NotifyRoles    []user.Role
}

// Completed reports whether the decision closed the request
func (o Outcome) Completed() bool {
	return o.To.Stage == StageCompleted
}

// Transition computes the next state for a decision taken at stage.
// The request must be PENDING at stage for the outcome to be applied.
func Transition(stage Stage, action Action) (Outcome, error) {
	if !stage.Decidable() {
		return Outcome{}, fmt.Errorf("%w: %s", ErrStageNotDecidable, stage)
	}
	if !action.Valid() {
		return Outcome{}, fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}

	out := Outcome{From: State{Status: StatusPending, Stage: stage}}

	if action == ActionDeclined {
		out.To = State{Status: StatusDeclined, Stage: StageCompleted}
		out.NotifyEmployee = true
		return out, nil
	}

	next := nextStage[stage]
	if next == StageCompleted {
		out.To = State{Status: StatusApproved, Stage: StageCompleted}
		out.NotifyEmployee = true
		out.NotifyRoles = []user.Role{user.RolePayroll}
		return out, nil
	}

	out.To = State{Status: StatusPending, Stage: next}
	out.NotifyRoles = []user.Role{stageAudience[next]}
	return out, nil
}

// ConsistentState reports whether status and stage agree:
// PENDING iff a decidable stage, APPROVED/DECLINED only when COMPLETED.
// ARCHIVED freezes whatever stage the request had.
func ConsistentState(s State) bool {
	switch s.Status {
	case StatusPending:
		return s.Stage.Decidable()
	case StatusApproved, StatusDeclined:
		return s.Stage == StageCompleted
	case StatusArchived:
		return s.Stage.Valid()
	case StatusCancelled:
		return s.Stage.Valid() && !s.Stage.Decidable()
	}
	return false
}
