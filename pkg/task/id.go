package task

import "github.com/relaywire/agentcore/pkg/identity"

func newTaskID() string { return identity.New() }
