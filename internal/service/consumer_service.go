package service

import (
	"context"
	"encoding/json"

	"multisite-be/internal/dto"
	"multisite-be/internal/pkg/logger"
	"multisite-be/internal/repository/unitofwork"
	"multisite-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const consumerModule = "CONSUMER"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventForwarder ships domain events out of the process. *nats.Publisher and
// the websocket hub implement it.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	forwarders []EventForwarder
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	forwarders []EventForwarder,
	log logger.ILogger,
) IConsumerService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		forwarders: forwarders,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage moves the live copies of a reassigned subtree to the new
// site, then forwards the change to the event bus.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SiteReassignedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // malformed payloads never succeed
		return
	}

	ids := append([]int64{payload.NodeId}, payload.DescendantIds...)
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	synced, err := uow.SiteTreeRepository().SyncLiveSite(ctx, ids, payload.ToSiteId)
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to sync live site", map[string]interface{}{
			"node_id":    payload.NodeId,
			"to_site_id": payload.ToSiteId,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info(consumerModule, "Live subtree reassigned", map[string]interface{}{
		"node_id":      payload.NodeId,
		"from_site_id": payload.FromSiteId,
		"to_site_id":   payload.ToSiteId,
		"live_rows":    synced,
	})

	event := events.NewSiteReassigned(payload.NodeId, payload.FromSiteId, payload.ToSiteId, payload.DescendantIds, payload.OccurredAt)
	for _, forwarder := range cs.forwarders {
		if err := forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to forward event", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
