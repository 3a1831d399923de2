package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/dealer_backend/config"
	"github.com/mmdatafocus/dealer_backend/treasury"
	"github.com/sirupsen/logrus"
)

type PubSubMessage struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type changeNotifier interface {
	Notify(ctx context.Context, ev treasury.ChangeEvent) error
}

var validate = validator.New()

func decodeChangeMessage(data []byte) (config.ChangeMessage, error) {
	var m config.ChangeMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, err
	}
	if err := validate.Struct(m); err != nil {
		return m, err
	}
	return m, nil
}

func toChangeEvent(m config.ChangeMessage) treasury.ChangeEvent {
	return treasury.ChangeEvent{
		BusinessId: m.BusinessId,
		Table:      m.Table,
		Action:     m.Action,
		RecordId:   m.RecordId,
		OccurredAt: m.OccurredAt,
	}
}

// treasuryPubSubHandler is the push endpoint for the treasury change topic.
// Poisoned messages are acked with 204; a non-2xx asks Pub/Sub to redeliver.
func treasuryPubSubHandler(notifier changeNotifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "changeFeed.go", "treasuryPubSubHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}

		// byte slice unmarshalling handles base64 decoding.
		var msg PubSubMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			config.LogError(logger, "changeFeed.go", "treasuryPubSubHandler", "Unmarshal body", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		m, err := decodeChangeMessage(msg.Message.Data)
		if err != nil {
			config.LogError(logger, "changeFeed.go", "treasuryPubSubHandler", "Invalid change message", string(msg.Message.Data), err)
			c.Status(http.StatusNoContent)
			return
		}

		if err := notifier.Notify(c.Request.Context(), toChangeEvent(m)); err != nil {
			logger.WithFields(logrus.Fields{
				"field":       "treasuryPubSubHandler",
				"business_id": m.BusinessId,
				"table":       m.Table,
				"message_id":  msg.Message.ID,
			}).Error("change notification not queued: " + err.Error())
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RunChangeSubscriber pulls change notifications until ctx is done.
func RunChangeSubscriber(ctx context.Context, notifier changeNotifier, logger *logrus.Logger) error {
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(ctx, client, config.ChangesTopicName())
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(ctx, client, config.ChangesSubscriptionName(), topic)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	callback := func(ctx context.Context, msg *pubsub.Message) {
		m, err := decodeChangeMessage(msg.Data)
		if err != nil {
			config.LogError(logger, "changeFeed.go", "RunChangeSubscriber", "Invalid change message", string(msg.Data), err)
			msg.Ack()
			return
		}
		if err := notifier.Notify(ctx, toChangeEvent(m)); err != nil {
			logger.WithFields(logrus.Fields{
				"field":       "RunChangeSubscriber",
				"business_id": m.BusinessId,
				"table":       m.Table,
				"message_id":  msg.ID,
			}).Error("change notification not queued: " + err.Error())
			msg.Nack()
			return
		}
		msg.Ack()
	}

	if err := sub.Receive(ctx, callback); err != nil {
		return fmt.Errorf("receive %s: %w", sub.ID(), err)
	}
	return nil
}
