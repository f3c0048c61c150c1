package ws

import (
	"context"
	"encoding/json"
	"strings"

	"zanzar-backend/pkg/logger"

	"github.com/google/uuid"
)

// Publisher fans an already-encoded frame out to peer instances. Nil
// means single-instance deployment.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Envelope is the wire format for every event pushed to a client.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// bridgeFrame carries an envelope between instances. Origin lets the
// subscribing side skip frames it published itself.
type bridgeFrame struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

const (
	profileChannelPrefix = "ws:profile:"
	roomChannelPrefix    = "ws:room:"
	broadcastChannel     = "ws:broadcast"
)

// Dispatcher routes named events to the live connections of one or more
// profiles. Delivery is best-effort: a dead connection is logged and
// skipped, and a profile with no connections drops the event silently.
// Callers that need durability write a Notification record instead.
type Dispatcher struct {
	instanceID string
	registry   *Registry
	publisher  Publisher
	log        *logger.Logger
}

func NewDispatcher(registry *Registry, publisher Publisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		instanceID: uuid.New().String(),
		registry:   registry,
		publisher:  publisher,
		log:        log,
	}
}

// EmitToProfile sends the event to every live connection of the profile.
func (d *Dispatcher) EmitToProfile(profileID uuid.UUID, event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		d.log.Errorf("marshal event %s: %v", event, err)
		return
	}
	d.deliverProfile(profileID, event, payload)
	d.publish(profileChannelPrefix+profileID.String(), payload)
}

// EmitToRoom sends the event to every connection joined to the room.
func (d *Dispatcher) EmitToRoom(room string, event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		d.log.Errorf("marshal event %s: %v", event, err)
		return
	}
	d.deliverRoom(room, event, payload)
	d.publish(roomChannelPrefix+room, payload)
}

// BroadcastAll sends the event to every live connection.
func (d *Dispatcher) BroadcastAll(event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		d.log.Errorf("marshal event %s: %v", event, err)
		return
	}
	d.deliverAll(event, payload)
	d.publish(broadcastChannel, payload)
}

func (d *Dispatcher) deliverProfile(profileID uuid.UUID, event string, payload []byte) {
	conns := d.registry.Connections(profileID)
	if len(conns) == 0 {
		d.log.Debugf("no live connections for profile %s, dropping %s", profileID, event)
		return
	}
	for _, c := range conns {
		if err := c.Send(payload); err != nil {
			d.log.Warnf("send %s to connection %s failed: %v", event, c.ID(), err)
		}
	}
}

func (d *Dispatcher) deliverRoom(room string, event string, payload []byte) {
	for _, c := range d.registry.RoomConnections(room) {
		if err := c.Send(payload); err != nil {
			d.log.Warnf("send %s to room %s connection %s failed: %v", event, room, c.ID(), err)
		}
	}
}

func (d *Dispatcher) deliverAll(event string, payload []byte) {
	for _, c := range d.registry.AllConnections() {
		if err := c.Send(payload); err != nil {
			d.log.Warnf("broadcast %s to connection %s failed: %v", event, c.ID(), err)
		}
	}
}

// publish forwards the frame to peer instances. Publish failures are
// logged and swallowed: a broken bridge must not fail the durable
// mutation that triggered the emit.
func (d *Dispatcher) publish(channel string, payload []byte) {
	if d.publisher == nil {
		return
	}
	frame, err := json.Marshal(bridgeFrame{Origin: d.instanceID, Payload: payload})
	if err != nil {
		d.log.Errorf("marshal bridge frame: %v", err)
		return
	}
	if err := d.publisher.Publish(context.Background(), channel, frame); err != nil {
		d.log.Warnf("publish to %s failed: %v", channel, err)
	}
}

// deliverBridged re-emits a frame received from a peer instance to the
// local connections addressed by the channel.
func (d *Dispatcher) deliverBridged(channel string, raw []byte) {
	var frame bridgeFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		d.log.Warnf("malformed bridge frame on %s: %v", channel, err)
		return
	}
	if frame.Origin == d.instanceID {
		return
	}

	switch {
	case strings.HasPrefix(channel, profileChannelPrefix):
		profileID, err := uuid.Parse(strings.TrimPrefix(channel, profileChannelPrefix))
		if err != nil {
			return
		}
		d.deliverProfile(profileID, "bridged", frame.Payload)
	case strings.HasPrefix(channel, roomChannelPrefix):
		d.deliverRoom(strings.TrimPrefix(channel, roomChannelPrefix), "bridged", frame.Payload)
	case channel == broadcastChannel:
		d.deliverAll("bridged", frame.Payload)
	}
}
