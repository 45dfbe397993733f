package jitter

import (
	"math"

	"github.com/huandu/skiplist"
	"github.com/samber/lo"
)

// latenessWindow remembers how late recent packets were scheduled, keyed by
// the clock reading in ms at which lateness was observed.
type latenessWindow struct {
	list   *skiplist.SkipList
	window int64
}

func newLatenessWindow(windowMs int64) *latenessWindow {
	return &latenessWindow{
		list:   skiplist.New(skiplist.Int64),
		window: windowMs,
	}
}

func (w *latenessWindow) add(nowMs int64, latenessMs int64) {
	if prev, ok := w.list.GetValue(nowMs); ok {
		latenessMs = lo.Max([]int64{latenessMs, prev.(int64)})
	}
	w.list.Set(nowMs, latenessMs)
	w.prune(nowMs)
}

func (w *latenessWindow) prune(nowMs int64) {
	removeLessThan(w.list, nowMs-w.window)
}

func (w *latenessWindow) peak(nowMs int64) int64 {
	w.prune(nowMs)
	if w.list.Len() == 0 {
		return 0
	}
	return maxInList(w.list)
}

func (w *latenessWindow) len() int {
	return w.list.Len()
}

func (w *latenessWindow) reset() {
	w.list.Init()
}

func maxInList(list *skiplist.SkipList) int64 {
	var res int64 = math.MinInt64
	for el := list.Front(); el != nil; el = el.Next() {
		res = lo.Max([]int64{res, el.Value.(int64)})
	}
	return res
}

func removeLessThan(list *skiplist.SkipList, key int64) {
	for {
		front := list.Front()
		if front == nil || front.Key() == nil || front.Key().(int64) >= key {
			break
		}
		list.RemoveFront()
	}
}
