package optimize

import "github.com/parrotfish-oss/flowcost/pkg/workflow"

// CriticalPath returns the ordered list of tasks on wf's longest-time path
// together with that path's total execution time (spec.md §4.D): a
// Workflow's time is the sum of its states, a Parallel/Map's time is the max
// over its branches/iterations, with ties broken by the first
// branch/iteration in list order.
func CriticalPath(wf *workflow.Workflow) ([]*workflow.Task, float64) {
	var tasks []*workflow.Task
	var total float64

	for _, s := range wf.States {
		switch st := s.(type) {
		case *workflow.Task:
			tasks = append(tasks, st)
			total += st.Time()
		case *workflow.Parallel:
			branchTasks, branchTime := slowestWorkflow(st.Branches)
			tasks = append(tasks, branchTasks...)
			total += branchTime
		case *workflow.Map:
			iterTasks, iterTime := slowestWorkflow(st.Iterations)
			tasks = append(tasks, iterTasks...)
			total += iterTime
		}
	}

	return tasks, total
}

// slowestWorkflow returns the critical path of whichever workflow in
// branches takes the longest, the first one in list order on a tie.
func slowestWorkflow(branches []*workflow.Workflow) ([]*workflow.Task, float64) {
	if len(branches) == 0 {
		return nil, 0
	}
	bestTasks, bestTime := CriticalPath(branches[0])
	for i := 1; i < len(branches); i++ {
		tasks, t := CriticalPath(branches[i])
		if t > bestTime {
			bestTasks, bestTime = tasks, t
		}
	}
	return bestTasks, bestTime
}
