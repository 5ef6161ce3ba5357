package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/internal/application/workers"
	"github.com/aescanero/spellforge/pkg/agent"
	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/node"
	"github.com/aescanero/spellforge/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrExecutionNotFound is returned for unknown execution ids
	ErrExecutionNotFound = errors.New("execution not found")
	// ErrExecutionTerminal is returned when cancelling a finished execution
	ErrExecutionTerminal = errors.New("execution already in terminal state")
)

// errExecutionTimeout is the spell error recorded when the spell timeout fires
const errExecutionTimeout = "execution timeout"

// Executor runs a single node job. *workers.Pool implements it.
type Executor interface {
	Execute(ctx context.Context, job workers.Job) workers.Result
}

// Manager coordinates spell execution
type Manager struct {
	registry  *registry.Registry
	pool      Executor
	eventBus  ports.EventBus
	storage   ports.StateStorage
	metrics   ports.MetricsCollector
	validator *Validator
	agent     *agent.Agent
	logger    *zap.Logger

	// Track active executions
	executions sync.Map // map[string]*execution
	active     atomic.Int64
	wg         sync.WaitGroup

	// Configuration
	spellTimeout time.Duration
	nodeTimeout  time.Duration
}

// execution holds the control handles of one running spell. The state
// itself is owned by the run goroutine.
type execution struct {
	id        string
	cancel    context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}
}

type nodeResult struct {
	nodeID string
	result workers.Result
}

// NewManager creates a new orchestrator manager. The agent is handed to every
// worker through its execution context and may be nil.
func NewManager(
	reg *registry.Registry,
	pool Executor,
	eventBus ports.EventBus,
	storage ports.StateStorage,
	metrics ports.MetricsCollector,
	ag *agent.Agent,
	logger *zap.Logger,
	spellTimeout, nodeTimeout time.Duration,
) *Manager {
	return &Manager{
		registry:     reg,
		pool:         pool,
		eventBus:     eventBus,
		storage:      storage,
		metrics:      metrics,
		validator:    NewValidator(reg),
		agent:        ag,
		logger:       logger,
		spellTimeout: spellTimeout,
		nodeTimeout:  nodeTimeout,
	}
}

// SubmitSpell validates and submits a spell for execution
func (m *Manager) SubmitSpell(ctx context.Context, spell *domain.Spell, inputs map[string]any) (string, error) {
	if err := m.validator.Validate(spell); err != nil {
		m.logger.Error("spell validation failed", zap.Error(err))
		m.metrics.RecordSpellSubmitted(string(domain.ExecutionStatusFailed))
		return "", fmt.Errorf("validation failed: %w", err)
	}

	plan, err := Compile(spell, m.registry)
	if err != nil {
		m.metrics.RecordSpellSubmitted(string(domain.ExecutionStatusFailed))
		return "", fmt.Errorf("failed to compile spell: %w", err)
	}

	executionID := uuid.New().String()

	state := &domain.SpellState{
		ExecutionID: executionID,
		Spell:       spell,
		Status:      domain.ExecutionStatusSubmitted,
		Inputs:      inputs,
		NodeStates:  make(map[string]*domain.NodeState, len(spell.Nodes)),
		SubmittedAt: time.Now(),
	}

	for _, nodeID := range plan.Order {
		state.NodeStates[nodeID] = &domain.NodeState{
			NodeID:    nodeID,
			Component: spell.Nodes[nodeID].Component,
			Status:    domain.ExecutionStatusPending,
		}
	}

	if err := m.storage.SaveState(ctx, state); err != nil {
		m.logger.Error("failed to save initial state",
			zap.String("execution_id", executionID),
			zap.Error(err))
		return "", fmt.Errorf("failed to save state: %w", err)
	}

	err = m.eventBus.Publish(ctx, domain.TopicSpellEvents, newEvent(domain.EventTypeSpellSubmitted, executionID, "", map[string]any{
		"spell_id": spell.ID,
		"inputs":   inputs,
	}))
	if err != nil {
		m.logger.Error("failed to publish spell submitted event",
			zap.String("execution_id", executionID),
			zap.Error(err))
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if m.spellTimeout > 0 {
		runCtx, cancel = context.WithTimeout(context.Background(), m.spellTimeout)
	} else {
		runCtx, cancel = context.WithCancel(context.Background())
	}

	exec := &execution{
		id:     executionID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.executions.Store(executionID, exec)
	m.metrics.SetActiveExecutions(int(m.active.Add(1)))

	m.metrics.RecordSpellSubmitted(string(domain.ExecutionStatusSubmitted))
	m.logger.Info("spell submitted",
		zap.String("execution_id", executionID),
		zap.String("spell_id", spell.ID))

	m.wg.Add(1)
	go m.run(runCtx, exec, plan, state)

	return executionID, nil
}

// GetStatus retrieves the current state of a spell execution
func (m *Manager) GetStatus(ctx context.Context, executionID string) (*domain.SpellState, error) {
	state, err := m.storage.GetState(ctx, executionID)
	if errors.Is(err, ports.ErrStateNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}
	return state, nil
}

// ListExecutions returns every stored execution, oldest first
func (m *Manager) ListExecutions(ctx context.Context) ([]*domain.SpellState, error) {
	states, err := m.storage.ListStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	return states, nil
}

// CancelExecution cancels a running spell execution and waits until the run
// has recorded its final state
func (m *Manager) CancelExecution(ctx context.Context, executionID string) error {
	val, ok := m.executions.Load(executionID)
	if !ok {
		state, err := m.GetStatus(ctx, executionID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrExecutionTerminal, state.Status)
	}

	exec := val.(*execution)
	exec.cancelled.Store(true)
	exec.cancel()

	select {
	case <-exec.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	state, err := m.GetStatus(ctx, executionID)
	if err != nil {
		return err
	}
	if state.Status != domain.ExecutionStatusCancelled {
		return fmt.Errorf("%w: %s", ErrExecutionTerminal, state.Status)
	}

	m.logger.Info("spell execution cancelled", zap.String("execution_id", executionID))
	return nil
}

// Shutdown cancels all active executions and waits for them to finish
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestrator manager")

	m.executions.Range(func(key, value any) bool {
		exec := value.(*execution)
		exec.cancelled.Store(true)
		exec.cancel()
		return true
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("orchestrator manager shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// run executes the plan. Ready nodes are dispatched concurrently; a node
// becomes ready once every upstream node completed. After the first failure
// no new node is started.
func (m *Manager) run(ctx context.Context, exec *execution, plan *Plan, state *domain.SpellState) {
	defer m.wg.Done()
	defer close(exec.done)
	defer func() {
		m.executions.Delete(exec.id)
		m.metrics.SetActiveExecutions(int(m.active.Add(-1)))
	}()
	defer exec.cancel()

	logger := m.logger.With(
		zap.String("execution_id", exec.id),
		zap.String("spell_id", plan.Spell.ID))

	started := time.Now()
	state.Status = domain.ExecutionStatusRunning
	state.StartedAt = &started
	m.save(state)
	m.publish(domain.TopicSpellEvents, newEvent(domain.EventTypeSpellStarted, exec.id, "", nil))

	position := make(map[string]int, len(plan.Order))
	waiting := make(map[string]int, len(plan.Order))
	var ready []string
	for i, id := range plan.Order {
		position[id] = i
		waiting[id] = len(plan.Upstream(id))
		if waiting[id] == 0 {
			ready = append(ready, id)
		}
	}

	outputs := make(map[string]node.Outputs, len(plan.Order))
	results := make(chan nodeResult)
	inFlight := 0
	completed := 0
	var failure error

	for {
		if failure == nil && ctx.Err() == nil {
			for _, id := range ready {
				m.launch(ctx, exec.id, plan, state, outputs, id, results, logger)
				inFlight++
			}
			ready = ready[:0]
		}

		if inFlight == 0 {
			break
		}

		r := <-results
		inFlight--

		ns := state.NodeStates[r.nodeID]
		now := time.Now()
		ns.CompletedAt = &now

		if r.result.Err != nil {
			ns.Error = r.result.Err.Error()
			ns.Status = domain.ExecutionStatusFailed
			if ctx.Err() != nil {
				// interrupted by cancellation or the spell timeout
				ns.Status = interruptedStatus(ctx, exec)
			} else if failure == nil {
				failure = fmt.Errorf("node %s failed: %w", r.nodeID, r.result.Err)
			}

			logger.Warn("node failed",
				zap.String("node_id", r.nodeID),
				zap.String("component", ns.Component),
				zap.Error(r.result.Err))
			m.save(state)
			m.publish(domain.TopicNodeEvents, newEvent(domain.EventTypeNodeFailed, exec.id, r.nodeID, map[string]any{
				"error":  ns.Error,
				"status": string(ns.Status),
			}))
			continue
		}

		completed++
		outputs[r.nodeID] = r.result.Outputs
		ns.Status = domain.ExecutionStatusCompleted
		ns.Output = map[string]any(r.result.Outputs)

		logger.Debug("node completed",
			zap.String("node_id", r.nodeID),
			zap.String("worker_id", r.result.WorkerID),
			zap.Duration("duration", r.result.Duration))
		m.save(state)
		m.publish(domain.TopicNodeEvents, newEvent(domain.EventTypeNodeCompleted, exec.id, r.nodeID, map[string]any{
			"output":      ns.Output,
			"worker_id":   r.result.WorkerID,
			"duration_ms": r.result.Duration.Milliseconds(),
		}))

		for _, next := range plan.Downstream(r.nodeID) {
			waiting[next]--
			if waiting[next] == 0 {
				ready = append(ready, next)
			}
		}
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
	}

	for _, id := range plan.Order {
		ns := state.NodeStates[id]
		if ns.Status != domain.ExecutionStatusPending {
			continue
		}
		ns.Status = domain.ExecutionStatusSkipped
		m.publish(domain.TopicNodeEvents, newEvent(domain.EventTypeNodeSkipped, exec.id, id, nil))
	}

	finished := time.Now()
	state.CompletedAt = &finished

	eventType := domain.EventTypeSpellFailed
	data := map[string]any{}
	switch {
	case completed == len(plan.Order):
		state.Status = domain.ExecutionStatusCompleted
		eventType = domain.EventTypeSpellCompleted
		data["outputs"] = spellOutputs(state)
	case failure != nil:
		state.Status = domain.ExecutionStatusFailed
		state.Error = failure.Error()
	case interruptedStatus(ctx, exec) == domain.ExecutionStatusCancelled:
		state.Status = domain.ExecutionStatusCancelled
		eventType = domain.EventTypeSpellCancelled
	default:
		state.Status = domain.ExecutionStatusFailed
		state.Error = errExecutionTimeout
		logger.Warn("spell execution timed out")
	}
	if state.Error != "" {
		data["error"] = state.Error
	}

	m.save(state)
	m.publish(domain.TopicSpellEvents, newEvent(eventType, exec.id, "", data))
	m.metrics.RecordSpellCompleted(string(state.Status), finished.Sub(started))

	logger.Info("spell execution finished",
		zap.String("status", string(state.Status)),
		zap.Duration("duration", finished.Sub(started)))
}

// launch marks a node running and hands it to the pool
func (m *Manager) launch(
	ctx context.Context,
	executionID string,
	plan *Plan,
	state *domain.SpellState,
	outputs map[string]node.Outputs,
	nodeID string,
	results chan<- nodeResult,
	logger *zap.Logger,
) {
	ns := state.NodeStates[nodeID]
	now := time.Now()
	ns.Status = domain.ExecutionStatusRunning
	ns.StartedAt = &now
	m.save(state)
	m.publish(domain.TopicNodeEvents, newEvent(domain.EventTypeNodeStarted, executionID, nodeID, map[string]any{
		"component": ns.Component,
	}))

	inst := plan.Instances[nodeID]
	job := workers.Job{
		ExecutionID: executionID,
		Instance:    inst,
		Component:   plan.Components[nodeID],
		Inputs:      ResolveInputs(inst, outputs),
		Context: &node.Context{
			SpellID:     plan.Spell.ID,
			ExecutionID: executionID,
			Agent:       m.agent,
			Inputs:      state.Inputs,
			Logger: logger.With(
				zap.String("node_id", nodeID),
				zap.String("component", ns.Component)),
		},
		Timeout: m.nodeTimeout,
	}

	go func() {
		results <- nodeResult{nodeID: nodeID, result: m.pool.Execute(ctx, job)}
	}()
}

// interruptedStatus maps an ended run context to the status it implies
func interruptedStatus(ctx context.Context, exec *execution) domain.ExecutionStatus {
	if exec.cancelled.Load() || errors.Is(ctx.Err(), context.Canceled) {
		return domain.ExecutionStatusCancelled
	}
	return domain.ExecutionStatusFailed
}

// spellOutputs collects the outputs of every completed node keyed by node ID
func spellOutputs(state *domain.SpellState) map[string]any {
	out := make(map[string]any, len(state.NodeStates))
	for id, ns := range state.NodeStates {
		if ns.Status == domain.ExecutionStatusCompleted {
			out[id] = ns.Output
		}
	}
	return out
}

func (m *Manager) save(state *domain.SpellState) {
	if err := m.storage.SaveState(context.Background(), state); err != nil {
		m.logger.Error("failed to save state",
			zap.String("execution_id", state.ExecutionID),
			zap.Error(err))
	}
}

func (m *Manager) publish(topic string, event domain.Event) {
	if err := m.eventBus.Publish(context.Background(), topic, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("execution_id", event.ExecutionID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

func newEvent(t domain.EventType, executionID, nodeID string, data map[string]any) domain.Event {
	return domain.Event{
		ID:          uuid.New().String(),
		Type:        t,
		ExecutionID: executionID,
		NodeID:      nodeID,
		Timestamp:   time.Now(),
		Data:        data,
	}
}
