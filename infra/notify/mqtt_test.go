package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/fieldops/fieldsched/core/model"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	connected  bool
	publishErr error
	messages   []published
}

func (c *fakeClient) IsConnected() bool { return c.connected }
func (c *fakeClient) Connect() paho.Token {
	c.connected = true
	return &fakeToken{}
}
func (c *fakeClient) Disconnect(uint) { c.connected = false }
func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	c.messages = append(c.messages, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{err: c.publishErr}
}

func newTestNotifier(t *testing.T, cli *fakeClient) *MQTTNotifier {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return cli }
	t.Cleanup(func() { newMQTTClient = orig })

	n, err := NewMQTTNotifier(Config{Broker: "tcp://broker:1883"})
	if err != nil {
		t.Fatalf("NewMQTTNotifier: %v", err)
	}
	return n
}

func TestNotifyAssignmentsPublishesPerTechnician(t *testing.T) {
	cli := &fakeClient{}
	n := newTestNotifier(t, cli)
	defer n.Close()

	placements := []model.ScheduledJob{
		{WorkOrder: 1, TechnicianID: "t1", Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), StartHour: 8, DurationHours: 2},
		{WorkOrder: 2, TechnicianID: "t2", Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), StartHour: 9, DurationHours: 3},
	}
	if err := n.NotifyAssignments("run-1", placements); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(cli.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(cli.messages))
	}
	if cli.messages[0].topic != "fieldsched/tech/t1/assignments" {
		t.Fatalf("unexpected topic %s", cli.messages[0].topic)
	}
	var msg assignmentMessage
	if err := json.Unmarshal(cli.messages[0].payload, &msg); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if msg.WorkOrder != 1 || msg.RunID != "run-1" || msg.Date != "2026-03-02" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestNotifyAssignmentsStopsOnPublishError(t *testing.T) {
	cli := &fakeClient{publishErr: errors.New("broker gone")}
	n := newTestNotifier(t, cli)
	defer n.Close()

	err := n.NotifyAssignments("run-1", []model.ScheduledJob{
		{WorkOrder: 1, TechnicianID: "t1", Date: time.Now(), StartHour: 8, DurationHours: 2},
		{WorkOrder: 2, TechnicianID: "t1", Date: time.Now(), StartHour: 10, DurationHours: 2},
	})
	if err == nil {
		t.Fatalf("expected the publish error surfaced")
	}
	if len(cli.messages) != 1 {
		t.Fatalf("batch must stop at the first failure, got %d messages", len(cli.messages))
	}
}

func TestBrokerRequired(t *testing.T) {
	if _, err := NewMQTTNotifier(Config{}); err == nil {
		t.Fatalf("expected an error without a broker")
	}
}
