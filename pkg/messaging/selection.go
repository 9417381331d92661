package messaging

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/matst80/slask-crossfilter/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitConfig struct {
	Url    string
	Prefix string
}

// RabbitTransport carries selection events from the dashboard front ends to
// the dispatcher and state changes back out.
type RabbitTransport struct {
	RabbitConfig
	connection *amqp.Connection
}

func NewRabbitTransport(config RabbitConfig) *RabbitTransport {
	if config.Prefix == "" {
		config.Prefix = "crossfilter"
	}
	return &RabbitTransport{RabbitConfig: config}
}

func (t *RabbitTransport) Connect() error {
	conn, err := amqp.Dial(t.Url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	defer ch.Close()
	for _, topic := range []ChangeTopic{SelectionChanged, StateChanged} {
		if err = DefineTopic(ch, t.Prefix, topic); err != nil {
			conn.Close()
			return err
		}
	}
	t.connection = conn
	log.Printf("connected to rabbit, prefix %s", t.Prefix)
	return nil
}

func (t *RabbitTransport) Close() error {
	if t.connection == nil {
		return nil
	}
	return t.connection.Close()
}

// DecodeSelection parses a delivery body into a selection event, filling in
// id and time when the sender left them out.
func DecodeSelection(body []byte) (types.SelectionEvent, error) {
	event := types.SelectionEvent{}
	if err := sonic.Unmarshal(body, &event); err != nil {
		return event, err
	}
	if event.Chart == "" {
		return event, fmt.Errorf("selection event without chart")
	}
	if event.Id == "" {
		event.Id = uuid.NewString()
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	return event, nil
}

func DecodeChange(body []byte) (types.StateChange, error) {
	change := types.StateChange{}
	err := sonic.Unmarshal(body, &change)
	return change, err
}

// ListenForSelections forwards selection events to out until the
// connection closes. Out is typically the input of Dispatcher.Run.
func (t *RabbitTransport) ListenForSelections(out chan<- types.SelectionEvent) error {
	ch, err := t.connection.Channel()
	if err != nil {
		return err
	}
	return Listen(ch, t.Prefix, SelectionChanged, DecodeSelection, func(event types.SelectionEvent) error {
		out <- event
		return nil
	})
}

func (t *RabbitTransport) SendSelection(ctx context.Context, event types.SelectionEvent) error {
	return SendChange(ctx, t.connection, t.Prefix, SelectionChanged, event)
}

// PublishChange matches crossfilter.ChangeHandler.
func (t *RabbitTransport) PublishChange(ctx context.Context, change types.StateChange) {
	if err := SendChange(ctx, t.connection, t.Prefix, StateChanged, change); err != nil {
		log.Printf("failed to publish state change for %s: %v", change.Chart, err)
	}
}

func (t *RabbitTransport) ListenForChanges(fn func(types.StateChange)) error {
	ch, err := t.connection.Channel()
	if err != nil {
		return err
	}
	return Listen(ch, t.Prefix, StateChanged, DecodeChange, func(change types.StateChange) error {
		fn(change)
		return nil
	})
}
