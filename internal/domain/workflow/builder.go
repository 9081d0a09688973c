package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a guarded transition applies to the given facts
type GuardFunc func(ctx context.Context, facts Facts) bool

// StateMachineBuilder collects the transition table for request statuses
type StateMachineBuilder interface {
	// Configure returns the rule set leaving the given state
	Configure(state State) StateConfiguration

	// Build snapshots the table into a machine positioned at initialState
	Build(initialState State) StateMachine

	// SourcesOf lists the states from which the trigger is configured
	SourcesOf(trigger Trigger) []State
}

// StateConfiguration adds transitions leaving one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf adds a guarded transition. For one trigger, transitions are
	// tried in the order they were added and the first passing guard wins.
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

// edge is one row of the transition table
type edge struct {
	from    State
	trigger Trigger
	to      State
	guard   GuardFunc
}

type tableBuilder struct {
	edges   []edge
	handles map[State]*stateRules
}

type stateRules struct {
	table *tableBuilder
	from  State
}

type stateMachine struct {
	current State
	edges   []edge
}

// NewBuilder creates an empty transition table
func NewBuilder() StateMachineBuilder {
	return &tableBuilder{handles: make(map[State]*stateRules)}
}

func (b *tableBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %d", state))
	}
	rules, ok := b.handles[state]
	if !ok {
		rules = &stateRules{table: b, from: state}
		b.handles[state] = rules
	}
	return rules
}

// Build copies the edges, so rules added later never reach this machine
func (b *tableBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %d", initialState))
	}
	return &stateMachine{
		current: initialState,
		edges:   append([]edge(nil), b.edges...),
	}
}

// SourcesOf returns the distinct source states for trigger, ordered by id
func (b *tableBuilder) SourcesOf(trigger Trigger) []State {
	seen := make(map[State]bool)
	var sources []State
	for _, e := range b.edges {
		if e.trigger == trigger && !seen[e.from] {
			seen[e.from] = true
			sources = append(sources, e.from)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}

func (r *stateRules) Permit(trigger Trigger, toState State) StateConfiguration {
	return r.PermitIf(trigger, toState, nil)
}

func (r *stateRules) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %d", toState))
	}
	r.table.edges = append(r.table.edges, edge{from: r.from, trigger: trigger, to: toState, guard: guard})
	return r
}

func (m *stateMachine) State() State {
	return m.current
}

// CanFire ignores guards
func (m *stateMachine) CanFire(trigger Trigger) bool {
	return len(m.candidates(trigger)) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger, facts Facts) error {
	candidates := m.candidates(trigger)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s is not permitted from %s", ErrInvalidTransition, trigger, m.current)
	}
	for _, e := range candidates {
		if e.guard == nil || e.guard(ctx, facts) {
			m.current = e.to
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	seen := make(map[Trigger]bool)
	triggers := []Trigger{}
	for _, e := range m.edges {
		if e.from == m.current && !seen[e.trigger] {
			seen[e.trigger] = true
			triggers = append(triggers, e.trigger)
		}
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

// candidates returns the edges for trigger leaving the current state, in order
func (m *stateMachine) candidates(trigger Trigger) []edge {
	var out []edge
	for _, e := range m.edges {
		if e.from == m.current && e.trigger == trigger {
			out = append(out, e)
		}
	}
	return out
}
