package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
)

// Session is one run through a fixed sequence of questions. All methods are safe for concurrent
// use; the per-question countdown runs on its own goroutine.
type Session struct {
	id   string
	mode domain.Mode
	svc  *Service

	mu        sync.Mutex
	version   uint64
	phase     domain.QuizPhase
	questions []domain.Question
	// answers[i] is nil for a timed out question. Only entries before index, and index itself
	// once answered, are meaningful.
	answers        []*int
	index          int
	remaining      int
	abortRequested bool
	result         *domain.QuizResult

	// timerGen identifies the running countdown; ticks carrying another generation are stale.
	timerGen  uint64
	timerDone chan struct{}
}

func (ss *Session) ID() string { return ss.id }

func (ss *Session) Mode() domain.Mode { return ss.mode }

func (ss *Session) Snapshot() domain.QuizSnapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	return ss.snapshotLocked()
}

// Submit records the chosen option for the current question. Submitting again for an answered
// question changes nothing.
func (ss *Session) Submit(option int) (domain.QuizSnapshot, error) {
	ss.mu.Lock()

	switch ss.phase {
	case domain.QuizPhaseAnswered:
		snap := ss.snapshotLocked()
		ss.mu.Unlock()
		return snap, nil
	case domain.QuizPhaseInProgress:
	default:
		ss.mu.Unlock()
		return domain.QuizSnapshot{}, errInvalidPhase("submit an answer", ss.phase)
	}

	if option < 0 || option >= len(ss.questions[ss.index].Options) {
		ss.mu.Unlock()
		return domain.QuizSnapshot{}, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("option %d does not exist", option))
	}

	ss.answerLocked(&option)
	snap := ss.changedLocked()
	ss.mu.Unlock()

	ss.svc.notify(snap)
	return snap, nil
}

// Next moves to the following question, or completes the session after the last one.
func (ss *Session) Next(ctx context.Context) (domain.QuizSnapshot, error) {
	ss.mu.Lock()

	if ss.phase != domain.QuizPhaseAnswered {
		ss.mu.Unlock()
		return domain.QuizSnapshot{}, errInvalidPhase("move to the next question", ss.phase)
	}

	if ss.index+1 < len(ss.questions) {
		ss.enterQuestionLocked(ss.index + 1)
		snap := ss.changedLocked()
		ss.mu.Unlock()

		ss.svc.notify(snap)
		return snap, nil
	}

	res := Score(ss.correctLocked(), len(ss.questions))
	ss.result = &res
	ss.phase = domain.QuizPhaseCompleted
	ss.abortRequested = false
	ss.stopTimerLocked()
	snap := ss.changedLocked()
	ss.mu.Unlock()

	// The session is already Completed and cannot be replayed, so recording it must outlive the
	// caller.
	ss.svc.complete(context.WithoutCancel(ctx), ss.mode, res)
	ss.svc.notify(snap)
	return snap, nil
}

// RequestAbort asks for confirmation before the session is abandoned. The session keeps running
// until ConfirmAbort.
func (ss *Session) RequestAbort() (domain.QuizSnapshot, error) {
	return ss.update("abort", func() {
		ss.abortRequested = true
	})
}

// DismissAbort withdraws a pending abort request.
func (ss *Session) DismissAbort() (domain.QuizSnapshot, error) {
	return ss.update("dismiss the abort", func() {
		ss.abortRequested = false
	})
}

// ConfirmAbort abandons the session. Nothing is recorded for an aborted session.
func (ss *Session) ConfirmAbort() (domain.QuizSnapshot, error) {
	ss.mu.Lock()

	if !ss.abortRequested || ss.phase.Terminal() {
		ss.mu.Unlock()
		return domain.QuizSnapshot{}, errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("no abort was requested"))
	}

	ss.phase = domain.QuizPhaseAborted
	ss.abortRequested = false
	ss.stopTimerLocked()
	snap := ss.changedLocked()
	ss.mu.Unlock()

	ss.svc.aborted(ss.mode)
	ss.svc.notify(snap)
	return snap, nil
}

func (ss *Session) update(action string, fn func()) (domain.QuizSnapshot, error) {
	ss.mu.Lock()

	if ss.phase != domain.QuizPhaseInProgress && ss.phase != domain.QuizPhaseAnswered {
		ss.mu.Unlock()
		return domain.QuizSnapshot{}, errInvalidPhase(action, ss.phase)
	}

	fn()
	snap := ss.changedLocked()
	ss.mu.Unlock()

	ss.svc.notify(snap)
	return snap, nil
}

func (ss *Session) start(questions []domain.Question) domain.QuizSnapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.questions = questions
	ss.answers = make([]*int, len(questions))
	ss.enterQuestionLocked(0)

	return ss.changedLocked()
}

func (ss *Session) enterQuestionLocked(i int) {
	ss.index = i
	ss.phase = domain.QuizPhaseInProgress
	ss.remaining = ss.mode.SecondsPerQuestion
	ss.startTimerLocked()
}

func (ss *Session) answerLocked(option *int) {
	ss.answers[ss.index] = option
	ss.phase = domain.QuizPhaseAnswered
	ss.stopTimerLocked()
}

func (ss *Session) correctLocked() int {
	var n int
	for i, a := range ss.answers {
		if a != nil && *a == ss.questions[i].CorrectIndex {
			n++
		}
	}
	return n
}

func (ss *Session) startTimerLocked() {
	ss.stopTimerLocked()
	if !ss.mode.Timed() {
		return
	}

	done := make(chan struct{})
	ss.timerDone = done
	go ss.runTimer(ss.timerGen, ss.svc.newTicker(time.Second), done)
}

// stopTimerLocked cancels the running countdown, if any. Ticks already in flight see a newer
// generation and are dropped.
func (ss *Session) stopTimerLocked() {
	ss.timerGen++
	if ss.timerDone != nil {
		close(ss.timerDone)
		ss.timerDone = nil
	}
}

func (ss *Session) runTimer(gen uint64, t Ticker, done <-chan struct{}) {
	defer t.Stop()

	for {
		select {
		case <-done:
			return
		case <-t.C():
			if !ss.tick(gen) {
				return
			}
		}
	}
}

// tick counts down one second and auto-submits a missing answer at zero. It reports whether the
// countdown goes on.
func (ss *Session) tick(gen uint64) bool {
	ss.mu.Lock()

	if gen != ss.timerGen || ss.phase != domain.QuizPhaseInProgress {
		ss.mu.Unlock()
		return false
	}

	ss.remaining--
	running := ss.remaining > 0
	if !running {
		ss.remaining = 0
		ss.answerLocked(nil)
	}
	snap := ss.changedLocked()
	ss.mu.Unlock()

	ss.svc.notify(snap)
	return running
}

func (ss *Session) changedLocked() domain.QuizSnapshot {
	ss.version++
	return ss.snapshotLocked()
}

func (ss *Session) snapshotLocked() domain.QuizSnapshot {
	snap := domain.QuizSnapshot{
		SessionID:      ss.id,
		Version:        ss.version,
		Mode:           ss.mode,
		Phase:          ss.phase,
		CurrentIndex:   ss.index,
		QuestionCount:  len(ss.questions),
		TimeRemaining:  ss.remaining,
		AbortRequested: ss.abortRequested,
		Result:         ss.result,
	}

	if ss.phase != domain.QuizPhaseInProgress && ss.phase != domain.QuizPhaseAnswered {
		return snap
	}

	q := ss.questions[ss.index]
	snap.Question = &domain.QuizPrompt{
		Text:     q.Text,
		Options:  append([]string(nil), q.Options...),
		Category: q.Category,
	}

	snap.Highlights = make([]domain.Highlight, len(q.Options))
	for i := range snap.Highlights {
		snap.Highlights[i] = domain.HighlightNeutral
	}

	if ss.phase == domain.QuizPhaseAnswered {
		a := ss.answers[ss.index]
		if a != nil {
			v := *a
			snap.Selected = &v
			if v != q.CorrectIndex {
				snap.Highlights[v] = domain.HighlightWrong
			}
		} else {
			snap.TimedOut = true
		}
		if q.CorrectIndex >= 0 && q.CorrectIndex < len(snap.Highlights) {
			snap.Highlights[q.CorrectIndex] = domain.HighlightCorrect
		}
	}

	return snap
}

func errInvalidPhase(action string, phase domain.QuizPhase) error {
	return errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("cannot %s while the session is %s", action, phase))
}
