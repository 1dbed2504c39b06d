package stream

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTimeInterval(t *testing.T) {
	scheduler := NewTestScheduler()
	subject := NewPublishSubject[int]()
	observable := TimeIntervalOn(subject.Observable(), scheduler)

	observer := new(mockObserver[TimedValue[int]])
	observer.Test(t)
	observer.On("OnNext", mock.Anything).Return()
	observer.On("OnCompleted").Return()

	observable.Subscribe(observer)

	scheduler.AdvanceTimeBy(1000 * time.Millisecond)
	subject.OnNext(1)
	scheduler.AdvanceTimeBy(2000 * time.Millisecond)
	subject.OnNext(2)
	scheduler.AdvanceTimeBy(3000 * time.Millisecond)
	subject.OnNext(3)
	subject.OnCompleted()

	require.Len(t, observer.Calls, 4)
	expected := []TimedValue[int]{
		{Interval: 1000, Value: 1},
		{Interval: 2000, Value: 2},
		{Interval: 3000, Value: 3},
	}
	for i, want := range expected {
		assert.Equal(t, "OnNext", observer.Calls[i].Method)
		assert.Equal(t, want, observer.Calls[i].Arguments.Get(0))
	}
	assert.Equal(t, "OnCompleted", observer.Calls[3].Method)
	observer.AssertNotCalled(t, "OnError", mock.Anything)
}

func TestTimeInterval_ErrorBecomesCompletion(t *testing.T) {
	scheduler := NewTestScheduler()
	subject := NewPublishSubject[string]()

	observer := new(mockObserver[TimedValue[string]])
	observer.Test(t)
	observer.On("OnNext", mock.Anything).Return()
	observer.On("OnCompleted").Return()

	TimeIntervalOn(subject.Observable(), scheduler).Subscribe(observer)

	scheduler.AdvanceTimeBy(250 * time.Millisecond)
	subject.OnNext("a")
	subject.OnError(errors.New("boom"))

	require.Len(t, observer.Calls, 2)
	assert.Equal(t, TimedValue[string]{Interval: 250, Value: "a"}, observer.Calls[0].Arguments.Get(0))
	assert.Equal(t, "OnCompleted", observer.Calls[1].Method)
	observer.AssertNumberOfCalls(t, "OnCompleted", 1)
	observer.AssertNotCalled(t, "OnError", mock.Anything)
}

func TestTimeInterval_FirstIntervalStartsAtSubscription(t *testing.T) {
	scheduler := NewTestScheduler()
	subject := NewPublishSubject[int]()
	observable := TimeIntervalOn(subject.Observable(), scheduler)

	scheduler.AdvanceTimeBy(5 * time.Second)
	rec := newRecorder[TimedValue[int]]()
	observable.Subscribe(rec)

	scheduler.AdvanceTimeBy(300 * time.Millisecond)
	subject.OnNext(7)

	assert.Equal(t, []TimedValue[int]{{Interval: 300, Value: 7}}, rec.Values())
}

func TestTimeInterval_IndependentSubscriptions(t *testing.T) {
	scheduler := NewTestScheduler()
	subject := NewPublishSubject[int]()
	observable := TimeIntervalOn(subject.Observable(), scheduler)

	first := newRecorder[TimedValue[int]]()
	observable.Subscribe(first)

	scheduler.AdvanceTimeBy(1000 * time.Millisecond)
	second := newRecorder[TimedValue[int]]()
	observable.Subscribe(second)

	scheduler.AdvanceTimeBy(500 * time.Millisecond)
	subject.OnNext(1)
	scheduler.AdvanceTimeBy(200 * time.Millisecond)
	subject.OnNext(2)
	subject.OnCompleted()

	assert.Equal(t, []TimedValue[int]{{Interval: 1500, Value: 1}, {Interval: 200, Value: 2}}, first.Values())
	assert.Equal(t, []TimedValue[int]{{Interval: 500, Value: 1}, {Interval: 200, Value: 2}}, second.Values())
	assert.Equal(t, 1, first.Completed())
	assert.Equal(t, 1, second.Completed())
}

func TestTimeInterval_ColdSourceResubscribes(t *testing.T) {
	scheduler := NewTestScheduler()
	observable := TimeIntervalOn(FromSlice("x", "y"), scheduler)

	for i := 0; i < 2; i++ {
		rec := newRecorder[TimedValue[string]]()
		observable.Subscribe(rec)
		assert.Equal(t, []TimedValue[string]{{Interval: 0, Value: "x"}, {Interval: 0, Value: "y"}}, rec.Values())
		assert.Equal(t, 1, rec.Completed())
		scheduler.AdvanceTimeBy(time.Second)
	}
}

func TestTimeInterval_NonMonotonicClockPassesThrough(t *testing.T) {
	scheduler := NewTestScheduler()
	subject := NewPublishSubject[int]()
	rec := newRecorder[TimedValue[int]]()
	TimeIntervalOn(subject.Observable(), scheduler).Subscribe(rec)

	scheduler.AdvanceTimeTo(5 * time.Second)
	subject.OnNext(1)
	scheduler.AdvanceTimeTo(2 * time.Second)
	subject.OnNext(2)

	assert.Equal(t, []TimedValue[int]{{Interval: 5000, Value: 1}, {Interval: -3000, Value: 2}}, rec.Values())
}

func TestTimeInterval_ValueIsPassedThrough(t *testing.T) {
	type payload struct{ n int }
	p := &payload{n: 42}

	subject := NewPublishSubject[*payload]()
	rec := newRecorder[TimedValue[*payload]]()
	TimeIntervalOn(subject.Observable(), NewTestScheduler()).Subscribe(rec)
	subject.OnNext(p)

	require.Len(t, rec.Values(), 1)
	assert.Same(t, p, rec.Values()[0].Value)
}

func TestTimeInterval_DownstreamPanicPropagates(t *testing.T) {
	subject := NewPublishSubject[int]()
	TimeIntervalOn(subject.Observable(), NewTestScheduler()).Subscribe(ObserverFuncs[TimedValue[int]]{
		Next: func(TimedValue[int]) { panic("downstream failed") },
	})

	assert.PanicsWithValue(t, "downstream failed", func() { subject.OnNext(1) })
}

func TestTimeInterval_RealScheduler(t *testing.T) {
	rec := newRecorder[TimedValue[int]]()
	TimeInterval(FromSlice(1, 2, 3)).Subscribe(rec)

	values := rec.Values()
	require.Len(t, values, 3)
	for i, v := range values {
		assert.Equal(t, i+1, v.Value)
		assert.GreaterOrEqual(t, v.Interval, int64(0))
	}
	assert.Equal(t, 1, rec.Completed())
}

func TestTimeIntervalStage(t *testing.T) {
	scheduler := NewTestScheduler()
	scheduler.AdvanceTimeBy(10 * time.Second)

	rec := newRecorder[TimedValue[string]]()
	stage := NewTimeIntervalStage[string](rec, scheduler)

	scheduler.AdvanceTimeBy(40 * time.Millisecond)
	stage.OnNext("a")
	stage.OnNext("b")
	scheduler.AdvanceTimeBy(60 * time.Millisecond)
	stage.OnNext("c")
	stage.OnError(errors.New("upstream failed"))

	assert.Equal(t, []TimedValue[string]{
		{Interval: 40, Value: "a"},
		{Interval: 0, Value: "b"},
		{Interval: 60, Value: "c"},
	}, rec.Values())
	assert.Equal(t, 1, rec.Completed())
	assert.Empty(t, rec.Errors())
}

func TestNewTimeIntervalStage_NilArguments(t *testing.T) {
	assert.PanicsWithValue(t, "stream: nil observer", func() {
		NewTimeIntervalStage[int](nil, NewTestScheduler())
	})
	assert.PanicsWithValue(t, "stream: nil scheduler", func() {
		NewTimeIntervalStage[int](newRecorder[TimedValue[int]](), nil)
	})
	assert.PanicsWithValue(t, "stream: nil scheduler", func() {
		TimeIntervalOn(FromSlice(1), nil)
	})
}

func TestTimedValue(t *testing.T) {
	tv := TimedValue[int]{Interval: 1500, Value: 3}

	assert.Equal(t, 1500*time.Millisecond, tv.Duration())
	assert.Equal(t, "TimedValue[interval=1500, value=3]", tv.String())

	data, err := json.Marshal(tv)
	require.NoError(t, err)
	assert.JSONEq(t, `{"interval":1500,"value":3}`, string(data))
}
