package scenario

import (
	"fmt"
	"sort"

	"github.com/kilianp07/posched/core/model"
)

// InsertWaitingJobs returns jobs plus one job of phase waiting covering each
// run of idle ticks between consecutive jobs of a unit. Input jobs are
// not modified and keep their order; inserted jobs follow them.
func InsertWaitingJobs(jobs []*model.Job, waiting model.Phase, axis model.TimeAxis) ([]*model.Job, error) {
	byUnit := map[string][]*model.Job{}
	var order []string
	for _, j := range jobs {
		if _, ok := byUnit[j.Unit.Name]; !ok {
			order = append(order, j.Unit.Name)
		}
		byUnit[j.Unit.Name] = append(byUnit[j.Unit.Name], j)
	}
	out := append([]*model.Job(nil), jobs...)
	for _, name := range order {
		list := append([]*model.Job(nil), byUnit[name]...)
		sort.SliceStable(list, func(a, b int) bool { return list[a].StartTick < list[b].StartTick })
		for i := 0; i+1 < len(list); i++ {
			cur, next := list[i], list[i+1]
			from, to := cur.EndTick+1, next.StartTick-1
			if to < from {
				continue
			}
			id := fmt.Sprintf("%s/%s/%d", name, waiting.Name, from)
			w, err := model.NewJob(id, cur.Unit, waiting, axis.FromTick(from), axis.FromTick(to), axis)
			if err != nil {
				return nil, err
			}
			out = append(out, w)
		}
	}
	return out, nil
}
