package utils

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	for _, totalSize := range []int{1, 3, ParallelFactor, 4*ParallelFactor + 3} {
		seen := make([]int32, totalSize)
		var groups int
		var done atomic.Int32
		err := GroupWorkParallel(
			context.Background(),
			totalSize,
			func(numGroups int) { groups = numGroups },
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				test.That(t, to-from, test.ShouldEqual, groupSize)
				return func(memberNum, workNum int) error {
						test.That(t, memberNum, test.ShouldEqual, workNum-from)
						atomic.AddInt32(&seen[workNum], 1)
						return nil
					}, func() {
						done.Add(1)
					}
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, groups, test.ShouldBeLessThanOrEqualTo, totalSize)
		test.That(t, int(done.Load()), test.ShouldEqual, groups)
		for _, count := range seen {
			test.That(t, count, test.ShouldEqual, int32(1))
		}
	}
}

func TestGroupWorkParallelErrors(t *testing.T) {
	bad := errors.New("bad pair")
	err := GroupWorkParallel(context.Background(), 10, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			return func(memberNum, workNum int) error {
				if workNum == 7 {
					return bad
				}
				return nil
			}, nil
		})
	test.That(t, errors.Is(err, bad), test.ShouldBeTrue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Int32
	err = GroupWorkParallel(ctx, 5, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			return func(memberNum, workNum int) error {
				ran.Add(1)
				return nil
			}, nil
		})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, ran.Load(), test.ShouldEqual, int32(0))

	test.That(t, GroupWorkParallel(context.Background(), 0, nil, nil), test.ShouldBeNil)
}

func TestParallelForEachRow(t *testing.T) {
	size := image.Point{4, 37}
	rows := make([]int, size.Y)
	ParallelForEachRow(size, func(y int) {
		rows[y] = y + 1
	})
	for y, v := range rows {
		test.That(t, v, test.ShouldEqual, y+1)
	}
}

func TestMathHelpers(t *testing.T) {
	test.That(t, ClampInt(300, 0, 254), test.ShouldEqual, 254)
	test.That(t, ClampInt(-3, 0, 254), test.ShouldEqual, 0)
	test.That(t, RoundInt(-2.5), test.ShouldEqual, -3)
	test.That(t, RoundInt(2.49), test.ShouldEqual, 2)
	test.That(t, AbsInt(-4), test.ShouldEqual, 4)
}
