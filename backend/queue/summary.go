package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/leandrocarocca/habit-circle-demo/backend/server/notifications/email"
	storage "github.com/leandrocarocca/habit-circle-demo/backend/storage/cache"
	"github.com/streadway/amqp"
)

// globalCount drives the round robin that spreads published messages across
// the available producers.
var globalCount int

// SummaryProducerFactory creates SummaryProducer instances.
type SummaryProducerFactory struct{}

// SummaryConsumerFactory creates SummaryConsumer instances. The cache is
// consulted per message so a user gets at most one summary mail per week no
// matter how many completed logs re-publish it.
type SummaryConsumerFactory struct {
	Cache storage.CacheInterface
}

// SummaryProducer publishes weekly summary messages onto the queue.
type SummaryProducer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   *amqp.Queue
}

// SummaryConsumer reads weekly summary messages, dedupes them through the
// cache, and sends the summary mail.
type SummaryConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   *amqp.Queue
	cache   storage.CacheInterface
}

// SummaryMessage is the payload published when a user completes a day. Id is
// the (user, week) pair that identifies the summary, which makes publishing
// idempotent: completing several days in the same week re-publishes the same
// Id and the consumer drops the duplicates.
type SummaryMessage struct {
	Id           string `json:"id"`
	To           string `json:"to"`
	WeekStart    string `json:"week_start"`
	TotalPoints  int    `json:"total_points"`
	DailyPoints  int    `json:"daily_points"`
	WeeklyPoints int    `json:"weekly_points"`
}

// CreateProducer builds a SummaryProducer bound to the given connection,
// channel and queue.
func (f *SummaryProducerFactory) CreateProducer(conn *amqp.Connection, ch *amqp.Channel, queue *amqp.Queue) (Producer, error) {
	return &SummaryProducer{
		conn:    conn,
		channel: ch,
		queue:   queue,
	}, nil
}

// CreateConsumer builds a SummaryConsumer bound to the given connection,
// channel and queue, wired to the factory's dedupe cache.
func (f *SummaryConsumerFactory) CreateConsumer(conn *amqp.Connection, ch *amqp.Channel, queue *amqp.Queue) (Consumer, error) {
	return &SummaryConsumer{
		conn:    conn,
		channel: ch,
		queue:   queue,
		cache:   f.Cache,
	}, nil
}

// Publish sends the given body to the queue.
func (sp *SummaryProducer) Publish(body []byte) error {
	err := sp.channel.Publish(
		"",            // exchange
		sp.queue.Name, // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	return nil
}

// Consume reads summary messages from the queue until ctx is cancelled.
// Each message is checked against the cache first; already-processed ids are
// acked and dropped. Transient failures (unmarshal, cache, SMTP) nack with
// requeue so another consumer can retry.
func (sc *SummaryConsumer) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	msgs, err := sc.channel.Consume(
		sc.queue.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case d, ok := <-msgs:
				if !ok {
					return
				}

				message := &SummaryMessage{}
				if err := json.Unmarshal(d.Body, message); err != nil {
					log.Printf("failed to unmarshal summary message: %v", err)
					d.Nack(false, true)
					continue
				}

				processed, err := sc.cache.Get(ctx, "summary_"+message.Id)
				if err != nil {
					// Ignore cache misses, handle other errors.
					if err.Error() != "key does not exist" {
						log.Printf("error checking cache: %v", err)
						d.Nack(false, true)
						continue
					}
				}

				if processed != nil {
					d.Ack(false)
					continue
				}

				if err := email.SendWeeklySummary(message.To, message.WeekStart, message.TotalPoints, message.DailyPoints, message.WeeklyPoints); err != nil {
					log.Printf("failed to send summary email: %v", err)
					d.Nack(false, true)
				} else {
					d.Ack(false)
					if err := sc.cache.Set(ctx, "summary_"+message.Id, true); err != nil {
						log.Printf("failed to set key in cache: %v", err)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return msgs, nil
}

// BuildSummaryQueue initializes the queue used for weekly summary emails with
// the requested number of producers and consumers, all sharing one dedupe
// cache.
func BuildSummaryQueue(rabbitMQURL string, numProducers int, numConsumers int, dedupeCache storage.CacheInterface) *Queue {
	prodFactories := make([]ProducerFactory, numProducers)
	for i := 0; i < numProducers; i++ {
		prodFactories[i] = &SummaryProducerFactory{}
	}

	consFactories := make([]ConsumerFactory, numConsumers)
	for i := 0; i < numConsumers; i++ {
		consFactories[i] = &SummaryConsumerFactory{Cache: dedupeCache}
	}

	return InitQueue(rabbitMQURL, "weeklySummaryQueue", prodFactories, consFactories)
}

// ProcessSummary serializes a summary message and publishes it through one of
// the queue's producers, chosen round robin.
func ProcessSummary(msg *SummaryMessage, summaryQueue *Queue) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.New("failed to marshal summary message: " + err.Error())
	}

	producerCount := len(summaryQueue.Producers)
	if producerCount == 0 {
		return errors.New("no producers available")
	}

	producer := summaryQueue.Producers[globalCount%producerCount]
	globalCount++

	if err := producer.Publish(body); err != nil {
		return errors.New("failed to publish summary message: " + err.Error())
	}

	return nil
}
