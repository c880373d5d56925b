package ingestion

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fleet-compliance-monitor/internal/config"
	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	"fleet-compliance-monitor/internal/domain/driver"
	checkinUC "fleet-compliance-monitor/internal/usecase/checkin"
	"fleet-compliance-monitor/pkg/mqtt"
)

const handleTimeout = 30 * time.Second

// Consumer bridges the broker to the check-in service. It subscribes to
// the media and chat event topics, debounces albums through the
// aggregator and commits each batch as one submission.
type Consumer struct {
	client     *mqtt.Client
	checkins   *checkinUC.Service
	drivers    driver.Repository
	aggregator *Aggregator
	cfg        *config.MQTTConfig
	log        *zap.Logger
}

func NewConsumer(
	client *mqtt.Client,
	checkins *checkinUC.Service,
	drivers driver.Repository,
	cfg *config.MQTTConfig,
	debounce time.Duration,
	log *zap.Logger,
) *Consumer {
	c := &Consumer{
		client:   client,
		checkins: checkins,
		drivers:  drivers,
		cfg:      cfg,
		log:      log,
	}
	c.aggregator = NewAggregator(debounce, c.commitBatch, log)
	return c
}

// Start subscribes to the ingest topics and runs the aggregator flush
// loop until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	qos := byte(c.cfg.QoS)

	if err := c.client.Subscribe(c.cfg.MediaTopic, qos, c.onMedia); err != nil {
		return err
	}
	if err := c.client.Subscribe(c.cfg.ChatEventTopic, qos, c.onChatEvent); err != nil {
		return err
	}

	go c.aggregator.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	c.log.Info("ingestion started",
		zap.String("media_topic", c.cfg.MediaTopic),
		zap.String("chat_event_topic", c.cfg.ChatEventTopic),
	)
	return nil
}

// Stop unsubscribes and drains the aggregator.
func (c *Consumer) Stop() {
	if err := c.client.Unsubscribe(c.cfg.MediaTopic, c.cfg.ChatEventTopic); err != nil {
		c.log.Warn("failed to unsubscribe", zap.Error(err))
	}
	c.aggregator.Stop()
}

func (c *Consumer) onMedia(topic string, payload []byte) {
	msg, err := ParseMediaMessage(payload)
	if err != nil {
		c.log.Warn("dropping malformed media message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}
	c.aggregator.Add(msg)
}

func (c *Consumer) onChatEvent(topic string, payload []byte) {
	ev, err := ParseChatEvent(payload)
	if err != nil {
		c.log.Warn("dropping malformed chat event",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch ev.Type {
	case ChatEventTitleChanged:
		if err := c.drivers.SetChatTitle(ctx, ev.ChatID, ev.Title); err != nil {
			c.log.Warn("failed to update chat title",
				zap.Int64("chat_id", ev.ChatID),
				zap.Error(err),
			)
		}
	case ChatEventText:
		err := c.checkins.RecordDriverText(ctx, ev.ChatID, ev.Text, ev.SentAt)
		if err != nil && !errors.Is(err, driver.ErrDriverNotFound) {
			c.log.Warn("failed to record driver text",
				zap.Int64("chat_id", ev.ChatID),
				zap.Error(err),
			)
		}
	}
}

// commitBatch turns a completed album, or a single item, into one
// check-in submission. Messages from chats with no enrolled driver are
// dropped quietly; any other failure is logged and the batch is lost,
// the driver's next upload will create a fresh submission.
func (c *Consumer) commitBatch(chatID int64, items []*MediaMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	media := make([]*domainCheckin.Media, len(items))
	at := time.Now()
	for i, m := range items {
		media[i] = &domainCheckin.Media{
			Kind:     m.Kind,
			FileRef:  m.FileRef,
			AlbumKey: m.AlbumKey,
		}
		if m.SentAt.Before(at) {
			at = m.SentAt
		}
	}

	ci, err := c.checkins.SubmitMedia(ctx, chatID, media, at)
	if errors.Is(err, driver.ErrDriverNotFound) {
		c.log.Debug("media from unenrolled chat ignored", zap.Int64("chat_id", chatID))
		return
	}
	if err != nil {
		c.log.Error("failed to submit media batch",
			zap.Int64("chat_id", chatID),
			zap.Int("items", len(items)),
			zap.Error(err),
		)
		return
	}

	// A caption naming a recognized exception reason rides along with
	// the media.
	for _, m := range items {
		if m.Caption != nil && *m.Caption != "" {
			if err := c.checkins.RecordDriverText(ctx, chatID, *m.Caption, at); err != nil {
				c.log.Debug("caption not recorded", zap.Error(err))
			}
			break
		}
	}

	c.log.Info("media batch submitted",
		zap.Int64("chat_id", chatID),
		zap.String("checkin_id", ci.ID.String()),
		zap.Int("items", len(items)),
	)
}
