package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"zanzar-backend/internal/auth"
	"zanzar-backend/internal/services"
	"zanzar-backend/internal/transport/httpdto"
	"zanzar-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const readTimeout = 60 * time.Second

type Handler struct {
	jwtSecret  string
	registry   *Registry
	dispatcher *Dispatcher
	chats      *services.ChatService
	log        *logger.Logger
}

func NewHandler(jwtSecret string, registry *Registry, dispatcher *Dispatcher, chats *services.ChatService, log *logger.Logger) *Handler {
	return &Handler{
		jwtSecret:  jwtSecret,
		registry:   registry,
		dispatcher: dispatcher,
		chats:      chats,
		log:        log,
	}
}

// inbound is a client-to-server frame. The envelope mirrors the one the
// server pushes, so both directions read the same on the wire.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Connect authenticates the handshake, upgrades to WebSocket and runs
// the read loop until the client goes away. Registration happens before
// the first read so events arriving mid-handshake are not lost.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	profileID, err := auth.ParseToken(h.jwtSecret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.registry.Register(profileID, client)
	go client.WriteLoop(ctx)

	h.log.Infof("profile %s connected (%s)", profileID, client.ID())

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.dispatch(ctx, client, profileID, raw)
	}

	h.registry.Deregister(profileID, client)
	_ = client.Close()
	h.log.Infof("profile %s disconnected (%s)", profileID, client.ID())
}

func (h *Handler) dispatch(ctx context.Context, client *Client, profileID uuid.UUID, raw []byte) {
	var frame inbound
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.sendError(client, "malformed frame")
		return
	}

	var err error
	switch frame.Event {
	case "joinChat":
		err = h.joinChat(ctx, client, profileID, frame.Data)
	case "leaveChat":
		err = h.leaveChat(client, frame.Data)
	case "openChat":
		err = h.openChat(ctx, client, profileID, frame.Data)
	case "sendMessage":
		err = h.sendMessage(ctx, profileID, frame.Data)
	case "markAsRead":
		err = h.markAsRead(ctx, profileID, frame.Data)
	case "editMessage":
		err = h.editMessage(ctx, frame.Data)
	case "deleteMessage":
		err = h.deleteMessage(ctx, frame.Data)
	case "getUnreadChatsCount":
		err = h.pushUnreadCount(ctx, profileID)
	default:
		h.sendError(client, "unknown event: "+frame.Event)
		return
	}

	if err != nil {
		h.log.Warnf("event %s from profile %s failed: %v", frame.Event, profileID, err)
		h.sendError(client, frame.Event+" failed")
	}
}

type conversationRef struct {
	ConversationID uuid.UUID `json:"conversationId"`
}

type messageRef struct {
	MessageID uuid.UUID `json:"messageId"`
}

func (h *Handler) joinChat(ctx context.Context, client *Client, profileID uuid.UUID, data json.RawMessage) error {
	var ref conversationRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	if err := h.chats.CanAccess(ctx, ref.ConversationID, profileID); err != nil {
		return err
	}
	h.registry.JoinRoom(services.ChatRoom(ref.ConversationID), client)
	return nil
}

func (h *Handler) leaveChat(client *Client, data json.RawMessage) error {
	var ref conversationRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	h.registry.LeaveRoom(services.ChatRoom(ref.ConversationID), client)
	return nil
}

// openChat joins the room and marks everything in it read in one step,
// matching what a client does when the user taps into a conversation.
func (h *Handler) openChat(ctx context.Context, client *Client, profileID uuid.UUID, data json.RawMessage) error {
	var ref conversationRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	if err := h.chats.CanAccess(ctx, ref.ConversationID, profileID); err != nil {
		return err
	}
	h.registry.JoinRoom(services.ChatRoom(ref.ConversationID), client)
	_, err := h.chats.MarkConversationAsRead(ctx, ref.ConversationID, profileID)
	return err
}

func (h *Handler) sendMessage(ctx context.Context, profileID uuid.UUID, data json.RawMessage) error {
	var in struct {
		ConversationID uuid.UUID `json:"conversationId"`
		Content        string    `json:"content"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	_, err := h.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: in.ConversationID,
		SenderID:       profileID,
		Content:        in.Content,
	})
	return err
}

func (h *Handler) markAsRead(ctx context.Context, profileID uuid.UUID, data json.RawMessage) error {
	var ref messageRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	return h.chats.MarkMessageAsRead(ctx, ref.MessageID, profileID)
}

func (h *Handler) editMessage(ctx context.Context, data json.RawMessage) error {
	var in struct {
		MessageID uuid.UUID `json:"messageId"`
		Content   string    `json:"content"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	_, err := h.chats.EditMessage(ctx, in.MessageID, in.Content)
	return err
}

func (h *Handler) deleteMessage(ctx context.Context, data json.RawMessage) error {
	var ref messageRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	return h.chats.DeleteMessage(ctx, ref.MessageID)
}

func (h *Handler) pushUnreadCount(ctx context.Context, profileID uuid.UUID) error {
	count, err := h.chats.UnreadChatsCount(ctx, profileID)
	if err != nil {
		return err
	}
	h.dispatcher.EmitToProfile(profileID, "unreadChatsCount", map[string]int64{"count": count})
	return nil
}

func (h *Handler) sendError(client *Client, message string) {
	payload, err := json.Marshal(Envelope{Event: "error", Data: map[string]string{"message": message}})
	if err != nil {
		return
	}
	if err := client.Send(payload); err != nil {
		h.log.Debugf("send error frame to %s: %v", client.ID(), err)
	}
}
