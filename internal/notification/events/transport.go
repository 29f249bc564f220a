package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const consumerGroup = "booking-notifications"

// Transport is the publisher/subscriber pair backing the notification bus.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

func (t Transport) Close() error {
	pubErr := t.Publisher.Close()
	subErr := t.Subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}

// NewGoChannelTransport returns an in-process bus.
func NewGoChannelTransport(logger watermill.LoggerAdapter) Transport {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)
	return Transport{Publisher: pubSub, Subscriber: pubSub}
}

// NewRedisTransport returns a bus backed by Redis streams.
func NewRedisTransport(client *redis.Client, logger watermill.LoggerAdapter) (Transport, error) {
	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("create redis publisher failed: %w", err)
	}

	sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: consumerGroup,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return Transport{}, fmt.Errorf("create redis subscriber failed: %w", err)
	}

	return Transport{Publisher: pub, Subscriber: sub}, nil
}
