package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fleet-compliance-monitor/internal/config"
	pkgErrors "fleet-compliance-monitor/pkg/errors"
	"fleet-compliance-monitor/pkg/mqtt"
)

// MQTTNotifier publishes outbound messages as JSON envelopes on the
// notify topic tree. A downstream bot bridge consumes them and talks to
// the chat platform; the delivery acknowledgement we get here is the
// broker's, so a connected broker counts as delivered.
type MQTTNotifier struct {
	client *mqtt.Client
	prefix string
	qos    byte
	log    *zap.Logger
}

func NewMQTTNotifier(client *mqtt.Client, cfg *config.MQTTConfig, log *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		prefix: cfg.NotifyTopicPrefix,
		qos:    byte(cfg.QoS),
		log:    log,
	}
}

type envelope struct {
	Kind      string      `json:"kind"`
	SentAt    time.Time   `json:"sent_at"`
	MessageID string      `json:"message_id"`
	Payload   interface{} `json:"payload"`
}

func (n *MQTTNotifier) publish(kind string, payload interface{}) DeliveryResult {
	if !n.client.IsConnected() {
		err := pkgErrors.NewAppError(pkgErrors.CodeDeliveryFailure,
			"mqtt broker not connected", nil)
		n.log.Warn("notification dropped", zap.String("kind", kind), zap.Error(err))
		return DeliveryResult{Err: err}
	}

	ref := fmt.Sprintf("%s-%d", kind, time.Now().UnixNano())
	env := envelope{
		Kind:      kind,
		SentAt:    time.Now().UTC(),
		MessageID: ref,
		Payload:   payload,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return DeliveryResult{Err: fmt.Errorf("failed to marshal %s: %w", kind, err)}
	}

	topic := n.prefix + "/" + kind
	if err := n.client.Publish(topic, n.qos, false, data); err != nil {
		n.log.Warn("notification publish failed",
			zap.String("kind", kind),
			zap.String("topic", topic),
			zap.Error(err),
		)
		return DeliveryResult{Err: pkgErrors.NewAppError(
			pkgErrors.CodeDeliveryFailure, "publish to "+topic+" failed", err)}
	}

	return DeliveryResult{OK: true, MessageRef: ref}
}

func (n *MQTTNotifier) SendDriverReminder(ctx context.Context, r *DriverReminder) DeliveryResult {
	return n.publish("driver_reminder", r)
}

func (n *MQTTNotifier) SendReviewCard(ctx context.Context, c *ReviewCard) DeliveryResult {
	return n.publish("review_card", c)
}

func (n *MQTTNotifier) SendDigest(ctx context.Context, d *DigestReport) DeliveryResult {
	return n.publish("digest", d)
}

func (n *MQTTNotifier) SendComplianceReport(ctx context.Context, r *ComplianceReport) DeliveryResult {
	return n.publish("compliance_report", r)
}

func (n *MQTTNotifier) SendDriverAlert(ctx context.Context, a *DriverAlert) DeliveryResult {
	return n.publish("driver_alert", a)
}

func (n *MQTTNotifier) SendEscalation(ctx context.Context, e *Escalation) DeliveryResult {
	return n.publish("escalation", e)
}

func (n *MQTTNotifier) SendCongrats(ctx context.Context, c *Congrats) DeliveryResult {
	return n.publish("congrats", c)
}

func (n *MQTTNotifier) SendLeaderboard(ctx context.Context, l *Leaderboard) DeliveryResult {
	return n.publish("leaderboard", l)
}
