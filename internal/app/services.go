package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/lightctl/sceneryd/internal/api"
	"github.com/lightctl/sceneryd/internal/catalog"
	"github.com/lightctl/sceneryd/internal/config"
	"github.com/lightctl/sceneryd/internal/db"
	"github.com/lightctl/sceneryd/internal/eventbus"
	"github.com/lightctl/sceneryd/internal/light"
	"github.com/lightctl/sceneryd/internal/selector"
	"github.com/lightctl/sceneryd/internal/statestream"
	"github.com/lightctl/sceneryd/internal/storage"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB      *db.DB
	Options *storage.OptionsStore
	Catalog *catalog.Catalog
	Bus     *eventbus.Bus

	// Transport, created on Start since it needs the broker
	MQTT       *statestream.Client
	Stream     *statestream.Stream
	Dispatcher *statestream.Dispatcher
	Selectors  *selector.Service
	API        *api.Server
}

// NewServices creates the offline services with proper dependency
// injection. Broker-backed services are created in Start.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	s.Bus = eventbus.New()
	s.Options = storage.NewOptionsStore(database.DB, s.Bus)
	s.Catalog = catalog.Build(cfg)

	if err := s.seedFavoriteColors(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// seedFavoriteColors stores the configured favorite colors for every light
// that has none stored yet. Lights the user already customized are left
// alone.
func (s *Services) seedFavoriteColors() error {
	for _, entityID := range s.Catalog.LightEntityIDs() {
		stored, err := s.Options.FavoriteColors(entityID)
		if err != nil {
			return err
		}
		if stored != nil {
			continue
		}

		lightConfig := s.Catalog.LightConfig(entityID)
		defaults := light.UniqueColors(append(lightConfig.FavoriteColorsFromProfiles(), lightConfig.FavoriteColors...))
		if len(defaults) == 0 {
			continue
		}
		if err := s.Options.SetFavoriteColors(entityID, defaults); err != nil {
			return err
		}
		log.Debug().Str("entity_id", entityID).Int("colors", len(defaults)).Msg("Seeded favorite colors")
	}
	return nil
}

// Start connects to the broker and starts all services in the correct
// order.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	client, err := statestream.Connect(s.cfg.MQTT)
	if err != nil {
		return err
	}
	s.MQTT = client

	s.Stream = statestream.NewStream(client, s.cfg.MQTT.StatePrefix, s.Bus)
	s.Dispatcher = statestream.NewDispatcher(client, s.cfg.MQTT.CommandTopic, catalog.NewChain(s.Catalog), s.Stream)
	s.Selectors = selector.NewService(s.Catalog, client, s.Dispatcher, s.Stream, s.Options, s.cfg.MQTT.SelectPrefix)

	if err := s.Stream.Start(); err != nil {
		return err
	}
	if err := s.Selectors.Start(s.Bus); err != nil {
		return err
	}

	if s.cfg.API.Enabled {
		s.API = api.NewServer(s.cfg.API.Host, s.cfg.API.Port, s.Catalog, s.Options, s.Stream, s.Dispatcher)
		go func() {
			if err := s.API.Run(ctx, s.cfg.ShutdownTimeout.Duration()); err != nil {
				log.Error().Err(err).Msg("API server error")
				onFatalError(err)
			}
		}()
	} else {
		log.Debug().Msg("API server disabled")
	}

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources. The broker connection goes first so no
// paho handler can publish into a bus that is shutting down.
func (s *Services) Close() {
	if s.MQTT != nil {
		s.MQTT.Disconnect()
	}
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		s.Bus.Close(ctx)
		cancel()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
