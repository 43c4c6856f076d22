package nats

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"

	"taskflow/domain/ports"
	"taskflow/pkg/logger"
)

// Subscriber รับ task events จาก NATS แล้วส่งต่อให้ publisher ภายใน instance (websocket hub)
// ทุก instance ของ API จึงเห็น event เดียวกัน
type Subscriber struct {
	client    *Client
	forward   ports.TaskEventPublisher
	sub       *nats.Subscription
	runningMu sync.Mutex
}

func NewSubscriber(client *Client, forward ports.TaskEventPublisher) *Subscriber {
	return &Subscriber{
		client:  client,
		forward: forward,
	}
}

func (s *Subscriber) Start() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.sub != nil {
		return nil
	}

	subject := s.client.subjectPrefix + ".>"
	sub, err := s.client.conn.Subscribe(subject, s.handleMessage)
	if err != nil {
		return err
	}
	s.sub = sub

	logger.Info("NATS subscriber started", "subject", subject)
	return nil
}

func (s *Subscriber) Stop() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.sub == nil {
		return nil
	}
	err := s.sub.Unsubscribe()
	s.sub = nil
	logger.Info("NATS subscriber stopped")
	return err
}

func (s *Subscriber) handleMessage(msg *nats.Msg) {
	var event ports.TaskEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Warn("Invalid task event payload", "subject", msg.Subject, "error", err)
		return
	}

	if err := s.forward.PublishTaskEvent(context.Background(), &event); err != nil {
		logger.Warn("Failed to forward task event", "subject", msg.Subject, "error", err)
	}
}
