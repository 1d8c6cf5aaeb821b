// Package lifecycle tracks the subscription state of a matrix member between distribution cycles.
package lifecycle

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/qmuntal/stateless"

	"github.com/tonclub/hypersonic/pkg/proto"
)

type State string

const (
	Unsubscribed State = "Unsubscribed"
	Active       State = "Active"
	GracePeriod  State = "GracePeriod"
	Expired      State = "Expired"
)

type Trigger string

const (
	Subscribe    Trigger = "Subscribe"
	FeeCovered   Trigger = "FeeCovered"
	FeeShortfall Trigger = "FeeShortfall"
	// Lapse is fired when the subscription term is over.
	Lapse Trigger = "Lapse"
)

// StateOf derives the lifecycle state from the flags of a matrix node.
func StateOf(n *proto.MatrixNode) State {
	switch {
	case n == nil:
		return Unsubscribed
	case n.Active && n.GracePeriod:
		return GracePeriod
	case n.Active:
		return Active
	default:
		return Expired
	}
}

func apply(n *proto.MatrixNode, s State) error {
	switch s {
	case Active:
		n.Active, n.GracePeriod = true, false
	case GracePeriod:
		n.Active, n.GracePeriod = true, true
	case Expired:
		n.Active, n.GracePeriod = false, false
	default:
		return errors.Errorf("can't store state %s in a matrix node", s)
	}
	return nil
}

// Machine is a state machine bound to a member record. The member's matrix flags are the
// storage of the machine, so every transition is immediately visible in the record.
type Machine struct {
	member  *proto.Member
	pending *proto.MatrixNode
	fsm     *stateless.StateMachine
}

func New(member *proto.Member) *Machine {
	m := &Machine{member: member}
	fsm := stateless.NewStateMachineWithExternalStorage(func(_ context.Context) (stateless.State, error) {
		return StateOf(m.member.Matrix), nil
	}, func(_ context.Context, s stateless.State) error {
		st, ok := s.(State)
		if !ok {
			return errors.Errorf("unexpected state type %T", s)
		}
		if m.member.Matrix == nil {
			if m.pending == nil {
				return errors.New("no matrix node to subscribe with")
			}
			m.member.Matrix, m.pending = m.pending, nil
		}
		return apply(m.member.Matrix, st)
	}, stateless.FiringQueued)

	fsm.Configure(Unsubscribed).
		Permit(Subscribe, Active)
	fsm.Configure(Active).
		Ignore(FeeCovered).
		Permit(FeeShortfall, GracePeriod).
		Permit(Lapse, Expired)
	fsm.Configure(GracePeriod).
		Permit(FeeCovered, Active).
		Permit(FeeShortfall, Expired).
		Permit(Lapse, Expired)
	fsm.Configure(Expired).
		Ignore(Lapse)

	m.fsm = fsm
	return m
}

func (m *Machine) State() State {
	return StateOf(m.member.Matrix)
}

// Subscribe attaches node to the member and makes the subscription active.
func (m *Machine) Subscribe(node *proto.MatrixNode) error {
	if node == nil {
		return errors.New("nil matrix node")
	}
	m.pending = node
	defer func() { m.pending = nil }()
	return m.fire(Subscribe)
}

// Cycle moves the machine through one distribution cycle. A subscription whose term is over
// lapses regardless of the fee, otherwise covered decides between FeeCovered and FeeShortfall.
func (m *Machine) Cycle(now time.Time, covered bool) (State, error) {
	if n := m.member.Matrix; n != nil && !now.Before(n.ExpirationDate) {
		if err := m.fire(Lapse); err != nil {
			return m.State(), err
		}
		return m.State(), nil
	}
	trigger := FeeShortfall
	if covered {
		trigger = FeeCovered
	}
	if err := m.fire(trigger); err != nil {
		return m.State(), err
	}
	return m.State(), nil
}

func (m *Machine) CanFire(t Trigger) bool {
	ok, err := m.fsm.CanFire(t)
	return err == nil && ok
}

func (m *Machine) fire(t Trigger) error {
	if err := m.fsm.Fire(t); err != nil {
		return errors.Wrapf(err, "%s in state %s", t, m.State())
	}
	return nil
}
