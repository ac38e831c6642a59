package session

import (
	"sync"

	"github.com/riskpad/riskpad/internal/obs"
)

// trackedFlows are the flows whose status enum is exposed to callers. The
// remaining flows only surface loading and error fields.
var trackedFlows = []Flow{
	FlowCheckSession,
	FlowForgotPassword,
	FlowRefreshToken,
	FlowResetPassword,
}

// State is a snapshot of the session container.
type State struct {
	User     *User
	Statuses map[Flow]Status
	Loading  map[Flow]bool
	Errors   map[Flow]string
}

func (s State) clone() State {
	out := State{
		User:     s.User,
		Statuses: make(map[Flow]Status, len(s.Statuses)),
		Loading:  make(map[Flow]bool, len(s.Loading)),
		Errors:   make(map[Flow]string, len(s.Errors)),
	}
	for k, v := range s.Statuses {
		out.Statuses[k] = v
	}
	for k, v := range s.Loading {
		out.Loading[k] = v
	}
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	return out
}

// Store is the event-sourced session state container. It is the exclusive
// owner of the user, status, loading and error fields; every mutation goes
// through Dispatch. Reduction is serialized under a mutex, giving the same
// single-writer property a browser event loop provides.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   map[int]chan struct{}
	nextID int
}

// NewStore creates a store with every tracked flow at StatusIdle.
func NewStore() *Store {
	statuses := make(map[Flow]Status, len(trackedFlows))
	for _, f := range trackedFlows {
		statuses[f] = StatusIdle
	}
	return &Store{
		state: State{
			Statuses: statuses,
			Loading:  make(map[Flow]bool),
			Errors:   make(map[Flow]string),
		},
		subs: make(map[int]chan struct{}),
	}
}

// Dispatch applies an event to the state and notifies subscribers. The
// reduction is committed before any subscriber is woken.
func (s *Store) Dispatch(ev Event) {
	s.mu.Lock()
	s.state = reduce(s.state, ev)
	chans := make([]chan struct{}, 0, len(s.subs))
	for _, ch := range s.subs {
		chans = append(chans, ch)
	}
	s.mu.Unlock()

	recordMetrics(ev)
	for _, ch := range chans {
		// Coalescing signal: a full buffer already guarantees a wakeup.
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers a change-notification channel. Notifications coalesce;
// a receive means "state changed at least once". The returned func
// unregisters the subscription and is safe to call more than once.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// reduce is the total transition function. Unknown flows in status updates
// are ignored so the tracked-status invariant holds.
func reduce(st State, ev Event) State {
	next := st.clone()
	switch e := ev.(type) {
	case FlowStarted:
		next.Loading[e.Flow] = true
		next.Errors[e.Flow] = ""
		if _, tracked := next.Statuses[e.Flow]; tracked {
			next.Statuses[e.Flow] = StatusStart
		}
	case FlowFailed:
		next.Loading[e.Flow] = false
		next.Errors[e.Flow] = e.Message
		if _, tracked := next.Statuses[e.Flow]; tracked {
			next.Statuses[e.Flow] = StatusFailed
		}
	case LoginCancelled:
		next.Loading[FlowLogin] = false
	case LoginSucceeded:
		u := e.User
		next.User = &u
		next.Loading[FlowLogin] = false
		next.Errors[FlowLogin] = ""
	case LogoutFinished:
		next.User = nil
		next.Loading[FlowLogout] = false
	case RefreshSucceeded:
		next.Loading[FlowRefreshToken] = false
		next.Statuses[FlowRefreshToken] = StatusSuccess
	case CheckSessionFinished:
		next.Loading[FlowCheckSession] = false
		next.Statuses[FlowCheckSession] = StatusSuccess
		if e.User != nil {
			u := *e.User
			next.User = &u
		}
	case ForgotPasswordSucceeded:
		next.Loading[FlowForgotPassword] = false
		next.Statuses[FlowForgotPassword] = StatusSuccess
	case ResetPasswordSucceeded:
		next.Loading[FlowResetPassword] = false
		next.Statuses[FlowResetPassword] = StatusSuccess
	case OTPSent:
		next.Loading[FlowSendOTP] = false
	}
	return next
}

func recordMetrics(ev Event) {
	switch e := ev.(type) {
	case FlowFailed:
		obs.RecordFlowOutcome(string(e.Flow), "failed")
	case LoginCancelled:
		obs.RecordFlowOutcome(string(FlowLogin), "cancelled")
	case LoginSucceeded:
		obs.RecordFlowOutcome(string(FlowLogin), "success")
	case LogoutFinished:
		obs.RecordFlowOutcome(string(FlowLogout), "success")
	case RefreshSucceeded:
		obs.RecordFlowOutcome(string(FlowRefreshToken), "success")
	case CheckSessionFinished:
		obs.RecordFlowOutcome(string(FlowCheckSession), "success")
	case ForgotPasswordSucceeded:
		obs.RecordFlowOutcome(string(FlowForgotPassword), "success")
	case ResetPasswordSucceeded:
		obs.RecordFlowOutcome(string(FlowResetPassword), "success")
	case OTPSent:
		obs.RecordFlowOutcome(string(FlowSendOTP), "success")
	}
}
