package data

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleJunior   = Role("junior")
	RoleTeamlead = Role("teamlead")
	RoleManager  = Role("manager")
	RoleHR       = Role("hr")
	RoleCFO      = Role("cfo")
	RoleAdmin    = Role("admin")
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleJunior, RoleTeamlead, RoleManager, RoleHR, RoleCFO, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrUnknownRole
	}
}

// Family distinguishes the three parallel withdrawal pipelines. They share
// one table and one lifecycle shape but use different status vocabularies.
type Family string

const (
	FamilyRegular = Family("regular")
	FamilyPayPal  = Family("paypal")
	FamilyTester  = Family("tester")
)

func ParseFamily(s string) (Family, error) {
	switch Family(s) {
	case FamilyRegular, FamilyPayPal, FamilyTester:
		return Family(s), nil
	default:
		return "", ErrUnknownFamily
	}
}

func AllFamilies() []Family {
	return []Family{FamilyRegular, FamilyPayPal, FamilyTester}
}

type Status string

const (
	// regular family
	StatusNew      = Status("new")
	StatusWaiting  = Status("waiting")
	StatusReceived = Status("received")
	StatusBlock    = Status("block")
	StatusProblem  = Status("problem")
	// paypal and tester families
	StatusPending  = Status("pending")
	StatusApproved = Status("approved")
	StatusRejected = Status("rejected")
	StatusBlocked  = Status("blocked")
)

type Action string

const (
	ActionApprove    = Action("approve")
	ActionReject     = Action("reject")
	ActionBlock      = Action("block")
	ActionComment    = Action("comment")
	ActionCreateTask = Action("create_task")
)

func (f Family) InitialStatus() Status {
	if f == FamilyRegular {
		return StatusNew
	}
	return StatusPending
}

// PendingStatuses is the set from which a decision is legal. Every status
// outside it is terminal for the family.
func (f Family) PendingStatuses() []Status {
	if f == FamilyRegular {
		return []Status{StatusNew, StatusWaiting}
	}
	return []Status{StatusPending}
}

func (f Family) IsPending(s Status) bool {
	for _, pending := range f.PendingStatuses() {
		if s == pending {
			return true
		}
	}
	return false
}

// SettledStatus is the terminal-approved status of the family; a work unit
// may complete only once one of its withdrawals reaches it.
func (f Family) SettledStatus() Status {
	if f == FamilyRegular {
		return StatusReceived
	}
	return StatusApproved
}

// Transition maps a decision action onto the family's next status. It does
// not inspect the current status; callers gate on the pending set.
func Transition(f Family, a Action) (Status, error) {
	switch f {
	case FamilyRegular:
		switch a {
		case ActionApprove:
			return StatusReceived, nil
		case ActionReject:
			return StatusProblem, nil
		case ActionBlock:
			return StatusBlock, nil
		}
	case FamilyPayPal:
		switch a {
		case ActionApprove:
			return StatusApproved, nil
		case ActionReject:
			return StatusRejected, nil
		case ActionBlock:
			return StatusBlocked, nil
		}
	case FamilyTester:
		switch a {
		case ActionApprove:
			return StatusApproved, nil
		case ActionReject:
			return StatusRejected, nil
		}
	}
	return "", ErrUnknownAction
}

type WorkStatus string

const (
	WorkActive    = WorkStatus("active")
	WorkCompleted = WorkStatus("completed")
	WorkCancelled = WorkStatus("cancelled")
	WorkBlocked   = WorkStatus("blocked")
)

func ParseWorkStatus(s string) (WorkStatus, error) {
	switch WorkStatus(s) {
	case WorkActive, WorkCompleted, WorkCancelled, WorkBlocked:
		return WorkStatus(s), nil
	default:
		return "", ErrUnknownWorkStatus
	}
}

type User struct {
	Login      string
	Role       Role
	ID         int
	TeamleadID *int
}

type WorkUnit struct {
	CreatedAt  time.Time
	Casino     string
	CardNumber string
	Currency   string
	Status     WorkStatus
	Amount     decimal.Decimal
	ID         int
	OperatorID int
}

type Withdrawal struct {
	CreatedAt  time.Time
	CheckedAt  *time.Time
	CheckedBy  *int
	Currency   string
	Family     Family
	Status     Status
	Amount     decimal.Decimal
	ID         int
	WorkID     int
	OperatorID int
}

// Review is a per-role record attached to a withdrawal. Roles write into
// their own record, so independent reviewers never clobber each other.
type Review struct {
	CheckedAt    time.Time
	Status       *Status
	Comment      string
	Role         Role
	WithdrawalID int
	CheckedBy    int
}

type Task struct {
	CreatedAt    time.Time
	Title        string
	Family       Family
	ID           int
	WithdrawalID int
	CreatedBy    int
}

// WithdrawalFilter narrows a listing. Owner/teamlead fields carry the
// caller's visibility scope; the rest are optional request filters.
type WithdrawalFilter struct {
	OperatorID      *int
	OwnerOperatorID *int
	TeamleadID      *int
	Families        []Family
	Statuses        []Status
}

const (
	EntityWithdrawal = "withdrawal"
	EntityWork       = "work"
	EntityTask       = "task"
)

// ActionRecord is one row of the append-only audit ledger.
type ActionRecord struct {
	CreatedAt  time.Time
	OldValues  map[string]any
	NewValues  map[string]any
	Action     string
	EntityType string
	ActorRole  Role
	ID         int
	EntityID   int
	ActorID    int
}
