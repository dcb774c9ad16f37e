package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/config"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/entity"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/event"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/mirror"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/repository"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/session"
	"github.com/rocketscienceinc/tictactoe-mirror/transport/rest"
	"github.com/rocketscienceinc/tictactoe-mirror/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	identityRepo := repository.NewIdentityRepository(redisStorage.Connection)

	identity, err := loadOrCreateIdentity(ctx, identityRepo)
	if err != nil {
		return fmt.Errorf("could not resolve local identity: %w", err)
	}

	bus := event.NewBus()
	sess := session.New(bus, identity.PlayerID)
	client := websocket.New(logger)
	controller := mirror.NewController(logger, sess, bus, client)

	// adopt and persist the identity the authority confirms for us
	client.OnConnected = func(player *entity.Player) {
		if player.ID == identity.PlayerID {
			return
		}

		sess.SetLocalPlayerID(player.ID)

		identity.PlayerID = player.ID
		if saveErr := identityRepo.Save(ctx, identity); saveErr != nil {
			log.Error("could not persist confirmed identity", "error", saveErr)
		}
	}

	// remember the attached instance so a restart can resume the same seat
	bus.SubscribeGameUpdated(func() {
		gameID := sess.GameID()
		if gameID == "" || gameID == identity.GameID {
			return
		}

		identity.GameID = gameID
		if saveErr := identityRepo.Save(ctx, identity); saveErr != nil {
			log.Error("could not persist attached game", "error", saveErr)
		}
	})

	localPlayer := &entity.Player{ID: identity.PlayerID, Name: conf.PlayerName}
	if err = client.Connect(ctx, conf.AuthorityURL, localPlayer); err != nil {
		return fmt.Errorf("could not connect to authority: %w", err)
	}

	defer func() {
		if err = client.Close(); err != nil {
			log.Error("could not close authority connection", "error", err)
		}
	}()

	// run the authority read loop
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Listening to authority", "url", conf.AuthorityURL)
		if wsErr := client.Listen(ctx, controller); wsErr != nil {
			log.Error("authority connection error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort, controller); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-wsErrCh:
		return fmt.Errorf("authority connection error: %w", err)
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// loadOrCreateIdentity - resumes the persisted identity or mints a new one.
func loadOrCreateIdentity(ctx context.Context, identityRepo repository.IdentityRepository) (*repository.Identity, error) {
	identity, err := identityRepo.Get(ctx)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		identity = &repository.Identity{PlayerID: uuid.NewString()}

		if err = identityRepo.Save(ctx, identity); err != nil {
			return nil, fmt.Errorf("could not save new identity: %w", err)
		}

		return identity, nil
	}

	if err != nil {
		return nil, fmt.Errorf("could not load identity: %w", err)
	}

	return identity, nil
}
