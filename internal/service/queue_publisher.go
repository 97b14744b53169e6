package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/resort-reservation/internal/queue"
)

// QueuePublisher publishes reservation events to RabbitMQ.  A connection
// is dialled per message; the event rate is a handful per booking so a
// long-lived channel is not worth its reconnect handling.
type QueuePublisher struct {
    URL string
    Log logrus.FieldLogger
}

// NewQueuePublisher returns a publisher for the broker at url.
func NewQueuePublisher(url string, log logrus.FieldLogger) *QueuePublisher {
    return &QueuePublisher{URL: url, Log: log}
}

// Publish sends ev to the reservation.events queue as persistent JSON.
// Errors are logged and returned so the caller can choose to ignore them.
func (p *QueuePublisher) Publish(ctx context.Context, ev queue.ReservationEvent) error {
    log := p.Log.WithFields(logrus.Fields{"event": ev.Type, "message_id": ev.ID})
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.WithError(err).Warn("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.WithError(err).Warn("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        queue.ReservationEventsQueue, // name
        true,                         // durable
        false,                        // autoDelete
        false,                        // exclusive
        false,                        // noWait
        nil,                          // args
    ); err != nil {
        log.WithError(err).Warn("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",                           // default exchange
        queue.ReservationEventsQueue, // routing key = queue name
        false,                        // mandatory
        false,                        // immediate
        pub,
    ); err != nil {
        log.WithError(err).Warn("rabbitmq: publish failed")
        return err
    }
    return nil
}
