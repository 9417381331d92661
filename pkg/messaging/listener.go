package messaging

import (
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	if err = ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(q.Name, "", false, true, false, false, nil)
}

// Decoder turns a delivery body into a typed message.
type Decoder[V any] func(body []byte) (V, error)

// handleDelivery decodes and handles one delivery. Undecodable bodies are
// rejected, handler failures are nacked; neither is requeued so a bad
// message cannot block the queue.
func handleDelivery[V any](d amqp.Delivery, topic ChangeTopic, decode Decoder[V], handle func(V) error) {
	msg, err := decode(d.Body)
	if err != nil {
		log.Printf("dropping undecodable message on %s: %v", topic, err)
		d.Reject(false)
		return
	}
	if err = handle(msg); err != nil {
		log.Printf("error processing message on %s: %v", topic, err)
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}

// Listen consumes topic in a goroutine until the channel closes, handing
// every decoded message to handle.
func Listen[V any](ch *amqp.Channel, prefix string, topic ChangeTopic, decode Decoder[V], handle func(V) error) error {
	msgs, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}
	go func() {
		defer ch.Close()
		for d := range msgs {
			handleDelivery(d, topic, decode, handle)
		}
		log.Printf("stopped listening on %s", topic)
	}()
	return nil
}
