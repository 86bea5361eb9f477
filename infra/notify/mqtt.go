// Package notify pushes committed assignments to field devices over MQTT.
// Each technician subscribes to their own assignment topic.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/fieldops/fieldsched/core/model"
	"github.com/fieldops/fieldsched/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string `koanf:"broker" json:"broker"`
	ClientID    string `koanf:"client_id" json:"client_id"`
	Username    string `koanf:"username" json:"username"`
	Password    string `koanf:"password" json:"password"`
	TopicPrefix string `koanf:"topic_prefix" json:"topic_prefix"`
	QoS         byte   `koanf:"qos" json:"qos"`
	Retain      bool   `koanf:"retain" json:"retain"`
	TimeoutMS   int    `koanf:"timeout_ms" json:"timeout_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "fieldsched"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "fieldsched"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 5000
	}
}

// Notifier publishes assignment notifications.
type Notifier interface {
	NotifyAssignments(runID string, placements []model.ScheduledJob) error
	Close()
}

// NopNotifier drops all notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyAssignments(string, []model.ScheduledJob) error { return nil }
func (NopNotifier) Close()                                              {}

// assignmentMessage is the wire payload field devices receive.
type assignmentMessage struct {
	RunID         string    `json:"run_id"`
	WorkOrder     int       `json:"work_order"`
	Date          string    `json:"date"`
	StartHour     float64   `json:"start_hour"`
	DurationHours float64   `json:"duration_hours"`
	DriveHours    float64   `json:"drive_hours"`
	SentAt        time.Time `json:"sent_at"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes each placement to the owning technician's topic.
type MQTTNotifier struct {
	cli     pahoClient
	cfg     Config
	log     logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewMQTTNotifier connects to the broker.
func NewMQTTNotifier(cfg Config) (*MQTTNotifier, error) {
	cfg.SetDefaults()
	if cfg.Broker == "" {
		return nil, fmt.Errorf("notify: broker is required")
	}
	log := logger.New("mqtt-notify")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("notify: connect: %w", token.Error())
	}
	return &MQTTNotifier{
		cli:     cli,
		cfg:     cfg,
		log:     log,
		timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		now:     time.Now,
	}, nil
}

// NotifyAssignments publishes one message per placement on
// <prefix>/tech/<id>/assignments. Publish failures stop the batch so the
// caller can retry it whole.
func (n *MQTTNotifier) NotifyAssignments(runID string, placements []model.ScheduledJob) error {
	for _, p := range placements {
		msg := assignmentMessage{
			RunID:         runID,
			WorkOrder:     p.WorkOrder,
			Date:          p.Date.Format("2006-01-02"),
			StartHour:     p.StartHour,
			DurationHours: p.DurationHours,
			DriveHours:    p.DriveHours,
			SentAt:        n.now(),
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("notify: marshal work order %d: %w", p.WorkOrder, err)
		}
		topic := fmt.Sprintf("%s/tech/%s/assignments", n.cfg.TopicPrefix, p.TechnicianID)
		token := n.cli.Publish(topic, n.cfg.QoS, n.cfg.Retain, payload)
		if !token.WaitTimeout(n.timeout) {
			return fmt.Errorf("notify: publish timeout on %s", topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("notify: publish %s: %w", topic, err)
		}
		n.log.Debugf("assignment %d published to %s", p.WorkOrder, topic)
	}
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
