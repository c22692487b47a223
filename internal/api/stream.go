package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	subscriberBuffer = 64
	streamWriteWait  = 10 * time.Second
)

// DecisionEvent describes websocket payloads emitted as decisions are made.
type DecisionEvent struct {
	Type      string       `json:"type"`
	DatasetID uint         `json:"dataset_id,omitempty"`
	Decision  *DecisionDTO `json:"decision,omitempty"`
	Dataset   *DatasetDTO  `json:"dataset,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// subscriber is one websocket connection with its own outbound queue. Only
// its pump goroutine writes to conn.
type subscriber struct {
	conn      *websocket.Conn
	queue     chan DecisionEvent
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{
		conn:  conn,
		queue: make(chan DecisionEvent, subscriberBuffer),
		done:  make(chan struct{}),
	}
}

// offer queues an event without blocking and reports whether it fit.
func (s *subscriber) offer(event DecisionEvent) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.queue <- event:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// DecisionNotifier fans decision events out to websocket subscribers.
// Broadcast only queues; a subscriber whose queue is full is dropped.
type DecisionNotifier struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	last        *DecisionEvent
}

// NewDecisionNotifier constructs a notifier instance.
func NewDecisionNotifier() *DecisionNotifier {
	return &DecisionNotifier{subscribers: make(map[*subscriber]struct{})}
}

// Register starts streaming to conn, beginning with the latest event.
func (n *DecisionNotifier) Register(conn *websocket.Conn) *subscriber {
	sub := newSubscriber(conn)
	n.mu.Lock()
	n.subscribers[sub] = struct{}{}
	if n.last != nil {
		sub.offer(*n.last)
	}
	n.mu.Unlock()

	go n.pump(sub)
	return sub
}

// Unregister stops streaming to the subscriber and closes its socket.
func (n *DecisionNotifier) Unregister(sub *subscriber) {
	if sub == nil {
		return
	}
	n.mu.Lock()
	delete(n.subscribers, sub)
	n.mu.Unlock()
	sub.close()
}

// Broadcast timestamps the event, remembers it and queues it for every
// subscriber.
func (n *DecisionNotifier) Broadcast(event DecisionEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	snapshot := event
	n.last = &snapshot
	for sub := range n.subscribers {
		if !sub.offer(event) {
			delete(n.subscribers, sub)
			sub.close()
			logrus.Warn("dropping decision stream subscriber that fell behind")
		}
	}
}

// Clients reports the number of live subscribers.
func (n *DecisionNotifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subscribers)
}

// LastEvent returns a copy of the most recent event, if any.
func (n *DecisionNotifier) LastEvent() *DecisionEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return nil
	}
	event := *n.last
	return &event
}

func (n *DecisionNotifier) pump(sub *subscriber) {
	defer n.Unregister(sub)
	for {
		select {
		case <-sub.done:
			return
		case event := <-sub.queue:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := sub.conn.WriteJSON(event); err != nil {
				logrus.WithError(err).Debug("write decision event")
				return
			}
		}
	}
}
