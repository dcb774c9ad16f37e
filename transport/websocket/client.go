package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/entity"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/mirror"
)

var (
	ErrMoveRejected     = errors.New("move rejected by authority")
	ErrConnectionClosed = errors.New("connection to authority closed")
)

type controller interface {
	Update(gameID string, snapshot *entity.Snapshot)
}

// Client is the mirror's single connection to the remote game authority. It
// feeds authoritative snapshots into the controller and implements the
// command channel the controller forwards moves through, correlating acks by
// request id.
type Client struct {
	logger     *slog.Logger
	controller controller
	handlers   map[string]func(ctx context.Context, message *Message) error

	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan error

	// OnConnected is invoked with the authority-assigned player once the
	// handshake completes. Used to persist the local identity.
	OnConnected func(player *entity.Player)
}

func New(logger *slog.Logger) *Client {
	client := &Client{
		logger:   logger.With("component", "websocket"),
		handlers: make(map[string]func(context.Context, *Message) error),
		pending:  make(map[string]chan error),
	}

	client.handlers[actionConnect] = client.handleConnected
	client.handlers[actionGameUpdated] = client.handleGameUpdated
	client.handlers[actionGameTurn] = client.handleTurnAck

	return client
}

// Connect - dials the authority and announces the local player identity.
func (that *Client) Connect(ctx context.Context, url string, player *entity.Player) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial authority: %w", err)
	}

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	that.conn = conn

	if err := that.send(actionConnect, ConnectPayload{Player: player}); err != nil {
		return fmt.Errorf("failed to announce identity: %w", err)
	}

	that.logger.Info("connected to authority", "url", url, "playerID", player.ID)

	return nil
}

// Listen - runs the read loop until the connection dies, dispatching every
// inbound authoritative message to the controller. This goroutine is the only
// update dispatcher, so snapshot application is never re-entered.
func (that *Client) Listen(ctx context.Context, controller controller) error {
	that.controller = controller

	log := that.logger.With("method", "Listen")

	for {
		_, reqBody, err := that.conn.ReadMessage()
		if err != nil {
			that.failPending(fmt.Errorf("%w: %w", ErrConnectionClosed, err))
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err := json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("no handler for action", "action", message.Action)
			continue
		}

		if err := handler(ctx, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// Send - forwards a candidate move and blocks until the authority acks it,
// rejects it, or the context is canceled. Implements the controller's
// command channel.
func (that *Client) Send(ctx context.Context, gameID string, cmd mirror.MoveCommand) error {
	requestID := uuid.NewString()

	ack := make(chan error, 1)

	that.pendingMu.Lock()
	that.pending[requestID] = ack
	that.pendingMu.Unlock()

	request := TurnRequest{
		RequestID: requestID,
		GameID:    gameID,
		Kind:      cmd.Kind,
		Move:      cmd.Move,
	}

	if err := that.send(actionGameTurn, request); err != nil {
		that.discardPending(requestID)
		return fmt.Errorf("failed to send move: %w", err)
	}

	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		that.discardPending(requestID)
		return fmt.Errorf("move not acknowledged: %w", ctx.Err())
	}
}

func (that *Client) Close() error {
	if that.conn == nil {
		return nil
	}

	if err := that.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	return nil
}

func (that *Client) handleConnected(_ context.Context, message *Message) error {
	var payload ConnectPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal connect payload: %w", err)
	}

	if payload.Player == nil {
		return errors.New("connect payload has no player")
	}

	that.logger.Info("identity confirmed", "playerID", payload.Player.ID)

	if that.OnConnected != nil {
		that.OnConnected(payload.Player)
	}

	return nil
}

func (that *Client) handleGameUpdated(_ context.Context, message *Message) error {
	var payload UpdatePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal update payload: %w", err)
	}

	if payload.Snapshot == nil {
		return errors.New("update payload has no snapshot")
	}

	that.controller.Update(payload.GameID, payload.Snapshot)

	return nil
}

func (that *Client) handleTurnAck(_ context.Context, message *Message) error {
	var ack TurnAck
	if err := json.Unmarshal(message.Payload, &ack); err != nil {
		return fmt.Errorf("failed to unmarshal turn ack: %w", err)
	}

	that.pendingMu.Lock()
	pending, ok := that.pending[ack.RequestID]
	delete(that.pending, ack.RequestID)
	that.pendingMu.Unlock()

	if !ok {
		// the caller gave up before the ack arrived
		return nil
	}

	if ack.Error != "" {
		pending <- fmt.Errorf("%w: %s", ErrMoveRejected, ack.Error)
	} else {
		pending <- nil
	}

	return nil
}

func (that *Client) send(action string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := Message{
		Action:  action,
		Payload: payloadJSON,
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Client) failPending(err error) {
	that.pendingMu.Lock()
	defer that.pendingMu.Unlock()

	for requestID, pending := range that.pending {
		pending <- err
		delete(that.pending, requestID)
	}
}

func (that *Client) discardPending(requestID string) {
	that.pendingMu.Lock()
	defer that.pendingMu.Unlock()

	delete(that.pending, requestID)
}
