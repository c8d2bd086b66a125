// internal/notify/notify.go
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Kind names a notification template.
type Kind string

const (
	KindRegistrationConfirmed Kind = "registration-confirmed"
	KindSubmissionReceived    Kind = "submission-received"
	KindPaymentApproved       Kind = "payment-approved"
	KindPaymentRejected       Kind = "payment-rejected"
	KindOTPIssued             Kind = "otp-issued"
)

// Message is a queued notification. Payload keys are template-specific
// (amount, reference, total_savings, reason, code).
type Message struct {
	Kind    Kind              `json:"kind"`
	Phone   string            `json:"phone"`
	Payload map[string]string `json:"payload"`
}

// Transport delivers a single message. Implementations own their wire format.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher queues messages and delivers them on a background worker with
// retry and backoff. Enqueueing never blocks and never fails: ledger
// transitions must not be held hostage by the SMS gateway.
type Dispatcher struct {
	transport  Transport
	limiter    *rate.Limiter
	queue      chan Message
	maxRetries int
	baseDelay  time.Duration

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewDispatcher(transport Transport) *Dispatcher {
	d := &Dispatcher{
		transport:  transport,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 10),
		queue:      make(chan Message, 256),
		maxRetries: 3,
		baseDelay:  time.Second,
		done:       make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch enqueues a message for background delivery. A full queue or a
// missing transport drops the message with a logged warning rather than
// blocking the caller.
func (d *Dispatcher) Dispatch(msg Message) {
	select {
	case <-d.done:
		log.Printf("notify: dispatcher closed, dropping %s to %s", msg.Kind, msg.Phone)
		return
	default:
	}
	select {
	case d.queue <- msg:
	default:
		log.Printf("notify: queue full, dropping %s to %s", msg.Kind, msg.Phone)
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case msg := <-d.queue:
			d.deliver(msg)
		case <-d.done:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case msg := <-d.queue:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	if d.transport == nil {
		log.Printf("notify: no transport configured, dropping %s to %s", msg.Kind, msg.Phone)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := d.limiter.Wait(ctx); err != nil {
		log.Printf("notify: rate limiter wait failed: %v", err)
		return
	}

	var err error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.baseDelay << (attempt - 1))
		}
		if err = d.transport.Send(ctx, msg); err == nil {
			return
		}
	}
	log.Printf("notify: giving up on %s to %s after %d attempts: %v",
		msg.Kind, msg.Phone, d.maxRetries+1, err)
}

// ConsoleTransport writes messages to the process log. It stands in for the
// SMS gateway in development.
type ConsoleTransport struct {
	Sender string
}

func (t *ConsoleTransport) Send(_ context.Context, msg Message) error {
	log.Printf("sms [%s -> %s] %s", t.Sender, msg.Phone, renderBody(msg))
	return nil
}

func renderBody(msg Message) string {
	p := msg.Payload
	switch msg.Kind {
	case KindRegistrationConfirmed:
		return fmt.Sprintf("Welcome to the club! Your member reference is %s.", p["reference"])
	case KindSubmissionReceived:
		return fmt.Sprintf("We received your proof of payment %s for R%s. It is pending verification.", p["reference"], p["amount"])
	case KindPaymentApproved:
		return fmt.Sprintf("Payment %s of R%s approved. Your total savings are now R%s.", p["reference"], p["amount"], p["total_savings"])
	case KindPaymentRejected:
		return fmt.Sprintf("Payment %s was rejected: %s", p["reference"], p["reason"])
	case KindOTPIssued:
		return fmt.Sprintf("Your password reset code is %s. It expires in %s minutes.", p["code"], p["ttl_minutes"])
	default:
		return string(msg.Kind)
	}
}
