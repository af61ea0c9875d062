package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/app/messagebus"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	amqp "github.com/rabbitmq/amqp091-go"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeChannel struct {
	mu               sync.Mutex
	key              string
	msg              amqp.Publishing
	err              error
	closed           bool
	published        int
	publishedOnClose int
	delay            time.Duration
	started          chan struct{}
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.started != nil {
		close(c.started)
	}
	time.Sleep(c.delay)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.publishedOnClose++
		return amqp.ErrClosed
	}
	c.key = key
	c.msg = msg
	c.published++
	return c.err
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func newPublisher(ch *fakeChannel) *Publisher {
	return &Publisher{
		queue:   "bmi_records",
		channel: ch,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandle_PublishesRecordedEvent(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch)

	record := bmi.Compute(bmi.Measurement{Age: 30, Height: 170, Weight: 65})
	entry := bmi.NewEntry("6f1c2a0e-8d7b-4d6e-9a51-0c3b8f2e7a11", record, "")
	events := entry.PopEvents()
	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}

	if err := p.Handle(events[0]); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if ch.key != "bmi_records" {
		t.Errorf("routing key: got %q", ch.key)
	}
	if ch.msg.DeliveryMode != amqp.Persistent {
		t.Errorf("delivery mode: got %d, want persistent", ch.msg.DeliveryMode)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.Type != bmi.EventRecorded {
		t.Errorf("headers: got %q %q", ch.msg.ContentType, ch.msg.Type)
	}
	if !ch.msg.Timestamp.Equal(entry.CreatedAt) {
		t.Errorf("timestamp: got %v, want %v", ch.msg.Timestamp, entry.CreatedAt)
	}

	var body bmi.RecordedEvent
	if err := json.Unmarshal(ch.msg.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.EntryID != entry.EntryID || body.Record != record {
		t.Errorf("body: got %+v", body)
	}
}

func TestHandle_PublishError(t *testing.T) {
	want := errors.New("channel closed")
	p := newPublisher(&fakeChannel{err: want})

	entry := bmi.NewEntry("id", bmi.Record{BMI: 20, Category: bmi.Normal}, "")
	if err := p.Handle(entry.PopEvents()[0]); !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
}

func TestHandle_NotConnected(t *testing.T) {
	p := &Publisher{queue: "q"}
	entry := bmi.NewEntry("id", bmi.Record{}, "")
	if err := p.Handle(entry.PopEvents()[0]); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("got %v, want ErrNotConnected", err)
	}
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	if err := newPublisher(ch).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ch.closed {
		t.Error("channel not closed")
	}
}

func TestClose_DrainedBusPublishesEverything(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ch := &fakeChannel{delay: 20 * time.Millisecond}
	p := newPublisher(ch)

	bus := messagebus.New(logger)
	bus.Register(bmi.EventRecorded, p.Handle)

	const n = 5
	for i := 0; i < n; i++ {
		entry := bmi.NewEntry(bmi.EntryID(fmt.Sprintf("id-%d", i)), bmi.Record{BMI: 20, Category: bmi.Normal}, "")
		if err := bus.PublishEvents(entry.PopEvents()...); err != nil {
			t.Fatalf("PublishEvents: %v", err)
		}
	}

	bus.Close()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if ch.published != n {
		t.Errorf("published: got %d, want %d", ch.published, n)
	}
	if ch.publishedOnClose != 0 {
		t.Errorf("publishes on a closed channel: %d", ch.publishedOnClose)
	}
}

func TestClose_WaitsForInFlightPublish(t *testing.T) {
	ch := &fakeChannel{delay: 50 * time.Millisecond, started: make(chan struct{})}
	p := newPublisher(ch)

	entry := bmi.NewEntry("id", bmi.Record{BMI: 20, Category: bmi.Normal}, "")
	done := make(chan error, 1)
	go func() { done <- p.Handle(entry.PopEvents()[0]) }()

	<-ch.started
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("in-flight Handle: %v", err)
	}
	if ch.publishedOnClose != 0 || ch.published != 1 {
		t.Errorf("published=%d publishedOnClose=%d, want 1 and 0", ch.published, ch.publishedOnClose)
	}
}

func TestHandle_AfterClose(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entry := bmi.NewEntry("id", bmi.Record{BMI: 20, Category: bmi.Normal}, "")
	if err := p.Handle(entry.PopEvents()[0]); !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v, want ErrClosed", err)
	}
	if ch.published != 0 || ch.publishedOnClose != 0 {
		t.Errorf("channel used after Close: published=%d publishedOnClose=%d", ch.published, ch.publishedOnClose)
	}
}
