package utils

import (
	"context"
	"image"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. Tests may lower it when too much
// parallelism slows them down in aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated number of groups.
	BeforeParallelGroupWorkFunc func(numGroups int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int) error
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel splits totalSize work items into at most ParallelFactor contiguous groups and
// runs each group on its own goroutine. Members of one group run sequentially, so per group state
// set up in groupWork needs no locking. A group stops at its first error or when ctx is done; the
// errors of all groups are combined.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	if totalSize <= 0 {
		return nil
	}
	numGroups := min(ParallelFactor, totalSize)
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups
	if before != nil {
		before(numGroups)
	}

	var (
		wait   sync.WaitGroup
		errMu  sync.Mutex
		allErr error
	)
	storeError := func(err error) {
		errMu.Lock()
		allErr = multierr.Combine(allErr, err)
		errMu.Unlock()
	}

	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		utils.PanicCapturingGo(func() {
			defer wait.Done()

			thisGroupSize := groupSize
			if groupNum == numGroups-1 {
				thisGroupSize += extra
			}
			from := groupSize * groupNum
			to := from + thisGroupSize
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				for workNum := from; workNum < to; workNum++ {
					if err := ctx.Err(); err != nil {
						storeError(err)
						break
					}
					if err := memberWork(workNum-from, workNum); err != nil {
						storeError(err)
						break
					}
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
		})
	}
	wait.Wait()
	return allErr
}

// ParallelForEachRow calls f for every row of an image of the given size, spreading rows over
// ParallelFactor goroutines. f must only touch state owned by its row.
func ParallelForEachRow(size image.Point, f func(y int)) {
	//nolint:errcheck
	GroupWorkParallel(context.Background(), size.Y, nil, func(_, _, _, _ int) (MemberWorkFunc, GroupWorkDoneFunc) {
		return func(_, y int) error {
			f(y)
			return nil
		}, nil
	})
}
