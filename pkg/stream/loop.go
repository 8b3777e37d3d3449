package stream

// loop is the completion queue of a single connection. Operations run on
// their own goroutine but never touch connection state: they hand back a
// handler, and handlers only execute on the goroutine that drains the loop
// through poll, runOne or drain.
type loop struct {
	completions chan func()
	outstanding int
}

func newLoop() *loop {
	return &loop{completions: make(chan func(), 1)}
}

// start launches op. The handler it returns is queued for the owner.
func (l *loop) start(op func() func()) {
	l.outstanding++
	go func() {
		l.completions <- op()
	}()
}

// poll runs the handlers of operations that already finished, without
// blocking, and returns how many ran.
func (l *loop) poll() int {
	ran := 0
	for l.outstanding > 0 {
		select {
		case handler := <-l.completions:
			l.outstanding--
			handler()
			ran++
		default:
			return ran
		}
	}
	return ran
}

// runOne blocks until one outstanding operation completes and runs its
// handler. It returns false when nothing is outstanding.
func (l *loop) runOne() bool {
	if l.outstanding == 0 {
		return false
	}
	handler := <-l.completions
	l.outstanding--
	handler()
	return true
}

// drain waits for every outstanding operation and runs its handler.
func (l *loop) drain() {
	for l.runOne() {
	}
}
