package task

import (
	"context"
	"fmt"

	"github.com/relaywire/agentcore/pkg/content"
)

// Choose delivers an external signal (usually a user reply) to a
// choice-awaiting task, invoking its worker with the chosen option. The
// worker decides whether the choice ends the task (typically by calling
// DeleteTask itself).
func (s *Scheduler) Choose(ctx context.Context, rt content.Runtime, taskID, optionName string) error {
	t, err := s.adapter.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !t.IsChoice() {
		return fmt.Errorf("task %q is not awaiting a choice", taskID)
	}

	var valid bool
	for _, opt := range t.Metadata.Options {
		if opt.Name == optionName {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("task %q has no option %q", taskID, optionName)
	}

	w, ok := s.workers.Get(t.Name)
	if !ok {
		return &Error{TaskID: t.ID, Name: t.Name, Detail: "no worker registered"}
	}

	if t.Metadata.Payload == nil {
		t.Metadata.Payload = make(map[string]any)
	}
	t.Metadata.Payload["choice"] = optionName

	if err := w.Execute(ctx, rt, t); err != nil {
		return err
	}

	s.notifyWaiter(taskID, optionName)
	return nil
}

// AwaitChoice blocks until Choose is called for taskID or ctx is done,
// returning the chosen option name. Useful for a worker or caller that
// wants to synchronously wait on human input rather than poll.
func (s *Scheduler) AwaitChoice(ctx context.Context, taskID string) (string, error) {
	ch := make(chan string, 1)
	s.choiceMu.Lock()
	s.waiters[taskID] = ch
	s.choiceMu.Unlock()
	defer func() {
		s.choiceMu.Lock()
		delete(s.waiters, taskID)
		s.choiceMu.Unlock()
	}()

	select {
	case opt := <-ch:
		return opt, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Scheduler) notifyWaiter(taskID, option string) {
	s.choiceMu.Lock()
	ch, ok := s.waiters[taskID]
	s.choiceMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- option:
	default:
	}
}
