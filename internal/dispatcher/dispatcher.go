package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/internal/hub"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// Dispatcher is the consuming side of the durable log. It turns records
// back into message frames and hands them to the live-channel hub for
// delivery to subscribed sessions. Malformed records are logged and
// skipped so one bad payload never stalls a partition.
type Dispatcher struct {
	hub hub.Publisher
}

func NewDispatcher(h hub.Publisher) *Dispatcher {
	return &Dispatcher{hub: h}
}

// HandlePublic fans a public record out to the room's broadcast
// destination.
func (d *Dispatcher) HandlePublic(ctx context.Context, key, value []byte) error {
	msg, ok := d.decode(value)
	if !ok {
		return nil
	}
	if msg.ChatRoomID == "" {
		l := log.L()
		l.Warn().Str(log.FieldMessageID, msg.ID).Msg("public record without room id, skipping")
		return nil
	}
	d.deliver(domain.RoomDestination(msg.ChatRoomID), msg)
	return nil
}

// HandlePrivate fans a private record out to the recipient's queue and
// echoes it to the sender's queue so every device of the sender sees the
// conversation too.
func (d *Dispatcher) HandlePrivate(ctx context.Context, key, value []byte) error {
	msg, ok := d.decode(value)
	if !ok {
		return nil
	}
	if msg.RecipientUsername == "" {
		l := log.L()
		l.Warn().Str(log.FieldMessageID, msg.ID).Msg("private record without recipient, skipping")
		return nil
	}
	d.deliver(domain.UserDestination(msg.RecipientUsername), msg)
	if msg.SenderUsername != "" && msg.SenderUsername != msg.RecipientUsername {
		d.deliver(domain.UserDestination(msg.SenderUsername), msg)
	}
	return nil
}

// HandleNotification fans a notification record out to the global
// notifications destination.
func (d *Dispatcher) HandleNotification(ctx context.Context, key, value []byte) error {
	msg, ok := d.decode(value)
	if !ok {
		return nil
	}
	d.deliver(domain.GlobalNotifications, msg)
	return nil
}

func (d *Dispatcher) decode(value []byte) (domain.MessageDTO, bool) {
	var msg domain.MessageDTO
	if err := json.Unmarshal(value, &msg); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("malformed record, skipping")
		return domain.MessageDTO{}, false
	}
	return msg, true
}

func (d *Dispatcher) deliver(destination string, msg domain.MessageDTO) {
	frame := domain.MessageFrame{
		Type:        domain.FrameTypeMessage,
		Destination: destination,
		Message:     msg,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to marshal message frame")
		return
	}
	d.hub.Publish(destination, payload)

	l := log.L()
	l.Debug().
		Str(log.FieldDestination, destination).
		Str(log.FieldMessageID, msg.ID).
		Msg("message dispatched")
}
