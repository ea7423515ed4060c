package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/nergy-se/hitemp/pkg/api/v1/meter"
	"github.com/nergy-se/hitemp/pkg/state"
	"github.com/sirupsen/logrus"
)

// Broker is an embedded MQTT server. Energy meters publish to it and device state is published from it.
type Broker struct {
	server *mqttv2.Server
}

// Start starts the broker. The TCP listener is skipped when addr is empty.
func Start(ctx context.Context, wg *sync.WaitGroup, addr string) (*Broker, error) {
	server := mqttv2.New(&mqttv2.Options{
		InlineClient: true,
	})

	// Allow all connections.
	_ = server.AddHook(new(auth.AllowHook), nil)

	if addr != "" {
		tcp := listeners.NewTCP(listeners.Config{ID: "t1", Address: addr})
		err := server.AddListener(tcp)
		if err != nil {
			return nil, err
		}
	}

	err := server.Serve()
	if err != nil {
		return nil, err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		server.Close()
	}()
	return &Broker{server: server}, nil
}

// SubscribeMeter stores every energy reading received on topic in cache.
func (b *Broker) SubscribeMeter(topic, field string, cache *meter.Cache) error {
	return b.server.Subscribe(topic, 1, func(cl *mqttv2.Client, sub packets.Subscription, pk packets.Packet) {
		data, err := ParseEnergyPayload(pk.Payload, field)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"topic":   pk.TopicName,
				"payload": string(pk.Payload),
			}).Errorf("mqtt: SubscribeMeter: %s", err)
			return
		}
		data.Id = pk.TopicName
		cache.Set(data)
		logrus.WithFields(logrus.Fields{
			"topic": pk.TopicName,
			"kwh":   data.TotalKWh(),
		}).Debug("mqtt: SubscribeMeter: got reading")
	})
}

func StateTopic(deviceCode string) string {
	return fmt.Sprintf("hitemp/%s/state", deviceCode)
}

// PublishState publishes s as a retained JSON message.
func (b *Broker) PublishState(deviceCode string, s state.State) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return b.server.Publish(StateTopic(deviceCode), payload, true, 0)
}
