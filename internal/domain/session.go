package domain

import (
	"errors"
	"fmt"
)

// State of a delivery session.
type SessionState string

const (
	SessionIdle       SessionState = "Idle"
	SessionNavigating SessionState = "Navigating"
	SessionCompleted  SessionState = "Completed"
)

var (
	ErrEmptyRoute       = errors.New("session: route has no delivery nodes")
	ErrSessionFinished  = errors.New("session: already completed")
	ErrSessionNotActive = errors.New("session: navigation not started")
)

// Ephemeral navigation state for one optimized route.
//
// The cursor indexes the delivery-only subsequence; depot and waypoint
// nodes are never completion targets. A session is single-operator: the
// cursor is mutated only through Advance, by one caller at a time.
type DeliverySession struct {
	Route *OptimizedRoute

	state          SessionState
	deliveries     []RouteNode
	cursor         int
	waypointPassed bool
}

// StartSession begins navigation over route.
// Fails when the route contains no delivery nodes.
func StartSession(route *OptimizedRoute) (*DeliverySession, error) {
	if route == nil {
		return nil, errors.New("session: route must be non-nil")
	}

	deliveries := route.DeliveryNodes()
	if len(deliveries) == 0 {
		return nil, ErrEmptyRoute
	}

	// Waypoint passage is recorded at start: when a route carries the
	// security waypoint it is the mandated first hop, traversed before
	// any delivery is reachable.
	return &DeliverySession{
		Route:          route,
		state:          SessionNavigating,
		deliveries:     deliveries,
		cursor:         0,
		waypointPassed: true,
	}, nil
}

func (s *DeliverySession) State() SessionState { return s.state }

func (s *DeliverySession) WaypointPassed() bool { return s.waypointPassed }

// Current returns the delivery node at the cursor.
func (s *DeliverySession) Current() (RouteNode, error) {
	switch s.state {
	case SessionCompleted:
		return RouteNode{}, ErrSessionFinished
	case SessionIdle:
		return RouteNode{}, ErrSessionNotActive
	}
	return s.deliveries[s.cursor], nil
}

// Remaining returns the count of deliveries after the cursor.
func (s *DeliverySession) Remaining() int {
	if s.state != SessionNavigating {
		return 0
	}
	return len(s.deliveries) - s.cursor - 1
}

// Advance moves the cursor past the current delivery.
// Completing the last delivery transitions the session to Completed;
// no further advancement is accepted afterwards.
func (s *DeliverySession) Advance() error {
	switch s.state {
	case SessionCompleted:
		return ErrSessionFinished
	case SessionIdle:
		return ErrSessionNotActive
	}

	if s.cursor+1 >= len(s.deliveries) {
		s.state = SessionCompleted
		s.cursor = len(s.deliveries)
		return nil
	}

	s.cursor++
	return nil
}

// Verify the order at the cursor matches the completion target.
func (s *DeliverySession) CheckTarget(orderID string) error {
	cur, err := s.Current()
	if err != nil {
		return err
	}
	if cur.ID != orderID {
		return fmt.Errorf("session: order %q is not the current stop (expected %q)", orderID, cur.ID)
	}
	return nil
}
