package dag

import "fmt"

// TaskIDKey is the node metadata key under which an external task reference
// is stored. The planning workflow links its tasks to components through
// this key; the engine gives the value no meaning beyond storage.
const TaskIDKey = "task_id"

// LinkTask records an external task identifier on a node's metadata.
// The value is stored under [TaskIDKey] with no validation beyond the
// generic metadata contract. Returns ErrNodeNotFound if the node is absent.
func (d *DAG) LinkTask(taskID, nodeID string) error {
	n, ok := d.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	n.Metadata[TaskIDKey] = taskID
	return nil
}

// TaskLink returns the task identifier linked to a node, or an empty string
// when none is set. Returns ErrNodeNotFound if the node is absent.
func (d *DAG) TaskLink(nodeID string) (string, error) {
	n, ok := d.nodes[nodeID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if task, ok := n.Metadata[TaskIDKey].(string); ok {
		return task, nil
	}
	return "", nil
}
