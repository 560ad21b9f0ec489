package mq

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePayload_RawMessage(t *testing.T) {
	data := []byte(`{"id":"m1","type":"item.ready","payload":{"cpr":"0101101234","tandplejeplan":true},"timestamp":"2025-05-01T10:00:00Z"}`)

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	raw, err := ParsePayload[json.RawMessage](&msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var item struct {
		CPR        string `json:"cpr"`
		DentalPlan bool   `json:"tandplejeplan"`
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if item.CPR != "0101101234" || !item.DentalPlan {
		t.Errorf("unexpected payload %+v", item)
	}
}

func TestParsePayload_Typed(t *testing.T) {
	msg := NewMessage(MessageTypeItemCompleted, ItemCompletedPayload{ItemID: "42", Outcome: "SUCCEEDED"})

	// Payload после JSON приходит как map
	data, _ := json.Marshal(msg)
	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	payload, err := ParsePayload[ItemCompletedPayload](&decoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.ItemID != "42" || payload.Outcome != "SUCCEEDED" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if decoded.ID == "" || decoded.Type != MessageTypeItemCompleted {
		t.Errorf("unexpected message %+v", decoded)
	}
}

func TestTopology_ItemsDeadLetter(t *testing.T) {
	var found bool
	for _, q := range queues() {
		if q.name != QueueItems {
			continue
		}
		found = true
		if q.args["x-dead-letter-exchange"] != string(ExchangeDLQ) {
			t.Errorf("expected dead letter exchange %s, got %v", ExchangeDLQ, q.args["x-dead-letter-exchange"])
		}
		if q.args["x-dead-letter-routing-key"] != string(RoutingKeyDLQItems) {
			t.Errorf("unexpected dead letter routing key %v", q.args["x-dead-letter-routing-key"])
		}
	}
	if !found {
		t.Fatal("items queue is not declared")
	}

	// Каждая привязка ссылается на объявленную очередь
	declared := map[Queue]bool{}
	for _, q := range queues() {
		declared[q.name] = true
	}
	for _, b := range bindings() {
		if !declared[b.queue] {
			t.Errorf("binding to undeclared queue %s", b.queue)
		}
	}
}

func TestNewConsumer_Defaults(t *testing.T) {
	c := NewConsumer(nil, nil, ConsumerConfig{Queue: string(QueueItems)})

	if c.cfg.Prefetch != 1 {
		t.Errorf("expected prefetch 1, got %d", c.cfg.Prefetch)
	}
	if !c.cfg.Requeue(errors.New("boom")) {
		t.Error("expected requeue by default")
	}
	// Stop до Start не паникует
	c.Stop()
}
