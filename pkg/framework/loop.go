package framework

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultPollInterval is how often the loop samples its clock.
const DefaultPollInterval = time.Millisecond

// Loop is the cooperative main loop. Controllers run in priority
// order on every iteration; periodic controllers are gated by their
// own cadence, so one loop serves several cadences.
type Loop struct {
	Clock        Clock
	PollInterval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	messages messageList
	lock     sync.Mutex

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	priorityLevel int
	messages      messageList
}

type messageList struct {
	head *messageItem
	tail *messageItem
}

type messageItem struct {
	msg  Message
	next *messageItem
}

func (l *messageList) append(item *messageItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *messageList) splice(src *messageList) {
	l.head, l.tail, src.head, src.tail = src.head, src.tail, nil, nil
}

var (
	loopCtxKey = &Loop{}
)

// LoopCtlFrom gets LoopControl from the context passed to runnables
// started by the loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop on the system clock.
func NewLoop() *Loop {
	return NewLoopWithClock(SystemClock{})
}

// NewLoopWithClock creates a Loop on the given clock.
func NewLoopWithClock(clock Clock) *Loop {
	return &Loop{
		Clock:        clock,
		PollInterval: DefaultPollInterval,
		wakeUpCh:     make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to run on every iteration.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddPeriodic registers controllers which run once per period.
func (l *Loop) AddPeriodic(priorityLevel int, period time.Duration, ctls ...Controller) *Loop {
	for _, ctl := range ctls {
		l.controllers[priorityLevel] = append(l.controllers[priorityLevel], Every(period, ctl))
	}
	return l
}

// AddRunnable adds background tasks started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. When a runnable fails, the others are
// cancelled and waited for before the error is returned.
func (l *Loop) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := NewRunnerWith(context.WithValue(runCtx, loopCtxKey, l))
	runner.Go(l.runners...)

	interval := l.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	for {
		select {
		case <-ctx.Done():
			if err := runner.Wait(); err != nil {
				glog.Errorf("runners stopped: %v", err)
			}
			return ctx.Err()
		case err := <-runner.Failed():
			cancel()
			if werr := runner.Wait(); werr != nil {
				glog.Errorf("runners stopped: %v", werr)
			}
			return err
		default:
		}
		l.Step(ctx)
		select {
		case <-l.wakeUpCh:
		default:
			l.Clock.Sleep(interval)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Step runs a single iteration at the current clock time.
func (l *Loop) Step(ctx context.Context) {
	iter := &loopIteration{Loop: l, time: l.Clock.Time()}
	l.lock.Lock()
	iter.messages.splice(&l.messages)
	l.lock.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtxKey, l)
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		for _, ctl := range l.controllers[i] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
	// messages not taken are kept for the next iteration.
	if iter.messages.head != nil {
		l.lock.Lock()
		iter.messages.tail.next = l.messages.head
		if l.messages.head == nil {
			l.messages.tail = iter.messages.tail
		}
		l.messages.head = iter.messages.head
		l.lock.Unlock()
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Messages() MessageStore {
	return t
}

type messageContext struct {
	item  *messageItem
	taken bool
}

func (c *messageContext) CurrentMessage() Message { return c.item.msg }
func (c *messageContext) MessageTaken()           { c.taken = true }

func (t *loopIteration) ProcessMessages(proc MessageProcessor) {
	var msgs, remains messageList
	msgs.splice(&t.messages)
	for msgs.head != nil {
		mctx := &messageContext{item: msgs.head}
		msgs.head = msgs.head.next
		mctx.item.next = nil
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains.append(mctx.item)
		}
	}
	t.messages = remains
}
