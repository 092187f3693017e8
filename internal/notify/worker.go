package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/vclass"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans out slot-availability pushes to subscribed clients when a
// release frees a slot in a previously-full partition.
type WorkerPool struct {
	size    int
	jobs    chan vclass.Class
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan vclass.Class, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notify worker %d started", id)
	for {
		select {
		case class := <-wp.jobs:
			wp.sendAvailabilityPushes(ctx, class)
		case <-ctx.Done():
			log.Printf("notify worker %d shutting down", id)
			return
		}
	}
}

// SlotFreed queues an availability notification for the given class. Drops the
// job when the queue is saturated rather than blocking a release.
func (wp *WorkerPool) SlotFreed(class vclass.Class) {
	select {
	case wp.jobs <- class:
	default:
		log.Printf("notify: queue full, dropping availability push for %s", class)
	}
}

func classLabel(class vclass.Class) string {
	switch class {
	case vclass.TwoWheel:
		return "two-wheel"
	case vclass.FourWheel:
		return "four-wheel"
	default:
		return "parking"
	}
}

// sendAvailabilityPushes fetches all subscriptions and notifies each one.
func (wp *WorkerPool) sendAvailabilityPushes(ctx context.Context, class vclass.Class) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("notify: error fetching subscriptions: %v", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	message := fmt.Sprintf("A %s slot just became available!", classLabel(class))
	log.Printf("notify: sending %d availability pushes (%s)", len(subscriptions), class)
	for _, sub := range subscriptions {
		wp.sendPush(ctx, sub, []byte(message))
	}
}

// sendPush sends a single web push notification and prunes the subscription
// when the endpoint reports it gone.
func (wp *WorkerPool) sendPush(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("notify: error sending push to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("notify: subscription %s expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("notify: failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
