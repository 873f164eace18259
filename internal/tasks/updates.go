package tasks

import "fmt"

// Update is a progress event for the CLI or TUI.
type Update struct {
	Phase    Phase
	Resource string
	Key      string // record key for mutations, resource name for exports
	Action   string
	Step     int
	Total    int
	Message  string
	Err      error
}

// Phase enumerates the stages reported through [Update].
type Phase int

const (
	MutationStarted Phase = iota
	MutationSucceeded
	MutationFailed
	MutationRejected
	CollectionReloaded
	ExportStarted
	ExportCompleted
	ExportFailed
)

func (p Phase) String() string {
	switch p {
	case MutationStarted:
		return "mutation_started"
	case MutationSucceeded:
		return "mutation_succeeded"
	case MutationFailed:
		return "mutation_failed"
	case MutationRejected:
		return "mutation_rejected"
	case CollectionReloaded:
		return "collection_reloaded"
	case ExportStarted:
		return "export_started"
	case ExportCompleted:
		return "export_completed"
	case ExportFailed:
		return "export_failed"
	default:
		return ""
	}
}

// sendUpdate delivers u without blocking; u is dropped when the channel is nil or full.
func sendUpdate(progress chan<- Update, u Update) {
	if progress == nil {
		return
	}
	select {
	case progress <- u:
	default:
	}
}

func mutationStartedUpdate(resource, key, action string) Update {
	return Update{
		Phase:    MutationStarted,
		Resource: resource,
		Key:      key,
		Action:   action,
		Message:  fmt.Sprintf("%s %s %s...", action, resource, key),
	}
}

func mutationSucceededUpdate(resource, key, action string) Update {
	return Update{
		Phase:    MutationSucceeded,
		Resource: resource,
		Key:      key,
		Action:   action,
		Message:  fmt.Sprintf("%s %s %s done", action, resource, key),
	}
}

func mutationFailedUpdate(resource, key, action string, err error) Update {
	return Update{
		Phase:    MutationFailed,
		Resource: resource,
		Key:      key,
		Action:   action,
		Message:  fmt.Sprintf("%s %s %s failed: %v", action, resource, key, err),
		Err:      err,
	}
}

func mutationRejectedUpdate(resource, key, action string, err error) Update {
	return Update{
		Phase:    MutationRejected,
		Resource: resource,
		Key:      key,
		Action:   action,
		Message:  fmt.Sprintf("%s %s is already being updated", resource, key),
		Err:      err,
	}
}

func reloadedUpdate(resource, key string, err error) Update {
	msg := fmt.Sprintf("reloaded %s", resource)
	if err != nil {
		msg = fmt.Sprintf("reload %s failed: %v", resource, err)
	}
	return Update{Phase: CollectionReloaded, Resource: resource, Key: key, Message: msg, Err: err}
}

func exportStartedUpdate(step, total int, name string) Update {
	return Update{
		Phase:    ExportStarted,
		Resource: name,
		Key:      name,
		Step:     step,
		Total:    total,
		Message:  fmt.Sprintf("Fetching %s...", name),
	}
}

func exportCompletedUpdate(step, total int, name string, count int) Update {
	return Update{
		Phase:    ExportCompleted,
		Resource: name,
		Key:      name,
		Step:     step,
		Total:    total,
		Message:  fmt.Sprintf("Exported %d %s", count, name),
	}
}

func exportFailedUpdate(step, total int, name string, err error) Update {
	return Update{
		Phase:    ExportFailed,
		Resource: name,
		Key:      name,
		Step:     step,
		Total:    total,
		Message:  fmt.Sprintf("Failed to export %s: %v", name, err),
		Err:      err,
	}
}
