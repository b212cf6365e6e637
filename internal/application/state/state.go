// Package state is the application-state container: an immutable State,
// typed actions and a pure reducer, with a Store that serializes dispatches
// and fans snapshots out to subscribers.
package state

import (
	"maps"
	"slices"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/identity"
)

// MaxNotifications bounds the notification queue; the oldest are dropped
const MaxNotifications = 50

// State is everything the admin client shows. Values handed out by the
// Store are copies and may be read freely.
type State struct {
	Session          identity.Session
	StudentSummaries map[string]fee.StudentFeeSummary
	ClassSummary     *fee.ClassSummary
	Dashboard        *fee.DashboardSummary
	Notifications    []Notification
	InFlight         map[string]bool
}

// Initial returns the logged-out empty state
func Initial() State {
	return State{
		Session:          identity.LoggedOut(),
		StudentSummaries: map[string]fee.StudentFeeSummary{},
		InFlight:         map[string]bool{},
	}
}

// StudentSummary returns the cached summary of a student
func (s State) StudentSummary(studentID string) (fee.StudentFeeSummary, bool) {
	sum, ok := s.StudentSummaries[studentID]
	return sum, ok
}

// Busy reports whether a mutation on key is in flight
func (s State) Busy(key string) bool {
	return s.InFlight[key]
}

func (s State) clone() State {
	next := s
	next.StudentSummaries = maps.Clone(s.StudentSummaries)
	if next.StudentSummaries == nil {
		next.StudentSummaries = map[string]fee.StudentFeeSummary{}
	}
	next.InFlight = maps.Clone(s.InFlight)
	if next.InFlight == nil {
		next.InFlight = map[string]bool{}
	}
	next.Notifications = slices.Clone(s.Notifications)
	return next
}

// Action is a state transition request
type Action interface {
	Name() string
}

// SessionRestored replaces the session with one loaded from the session store
type SessionRestored struct{ Session identity.Session }

// LoggedIn starts a session for User
type LoggedIn struct {
	User identity.User
	At   time.Time
}

// LoggedOut clears the session and every cached view
type LoggedOut struct{}

// StudentSummaryLoaded caches the authoritative summary of one student
type StudentSummaryLoaded struct{ Summary fee.StudentFeeSummary }

// ClassSummaryLoaded replaces the class view
type ClassSummaryLoaded struct{ Summary fee.ClassSummary }

// DashboardLoaded replaces the dashboard view
type DashboardLoaded struct{ Summary fee.DashboardSummary }

// MutationStarted marks key as in flight
type MutationStarted struct{ Key string }

// MutationFinished clears the in-flight mark of key
type MutationFinished struct{ Key string }

// NotificationRaised appends a notification
type NotificationRaised struct{ Notification Notification }

// NotificationDismissed removes one notification by id
type NotificationDismissed struct{ ID string }

// NotificationsCleared empties the notification queue
type NotificationsCleared struct{}

func (SessionRestored) Name() string       { return "session_restored" }
func (LoggedIn) Name() string              { return "logged_in" }
func (LoggedOut) Name() string             { return "logged_out" }
func (StudentSummaryLoaded) Name() string  { return "student_summary_loaded" }
func (ClassSummaryLoaded) Name() string    { return "class_summary_loaded" }
func (DashboardLoaded) Name() string       { return "dashboard_loaded" }
func (MutationStarted) Name() string       { return "mutation_started" }
func (MutationFinished) Name() string      { return "mutation_finished" }
func (NotificationRaised) Name() string    { return "notification_raised" }
func (NotificationDismissed) Name() string { return "notification_dismissed" }
func (NotificationsCleared) Name() string  { return "notifications_cleared" }

// Reduce returns the state after applying a. It never modifies s.
// Unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	next := s.clone()
	switch act := a.(type) {
	case SessionRestored:
		next.Session = act.Session
	case LoggedIn:
		next.Session = identity.NewSession(act.User, act.At)
	case LoggedOut:
		next = Initial()
		next.Notifications = slices.Clone(s.Notifications)
	case StudentSummaryLoaded:
		next.StudentSummaries[act.Summary.Student.StudentID] = act.Summary
	case ClassSummaryLoaded:
		sum := act.Summary
		next.ClassSummary = &sum
	case DashboardLoaded:
		sum := act.Summary
		next.Dashboard = &sum
	case MutationStarted:
		next.InFlight[act.Key] = true
	case MutationFinished:
		delete(next.InFlight, act.Key)
	case NotificationRaised:
		next.Notifications = append(next.Notifications, act.Notification)
		if over := len(next.Notifications) - MaxNotifications; over > 0 {
			next.Notifications = next.Notifications[over:]
		}
	case NotificationDismissed:
		next.Notifications = slices.DeleteFunc(next.Notifications, func(n Notification) bool {
			return n.ID == act.ID
		})
	case NotificationsCleared:
		next.Notifications = nil
	default:
		return s
	}
	return next
}
