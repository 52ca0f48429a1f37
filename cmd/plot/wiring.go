package main

import (
	"errors"
	"fmt"

	"github.com/plot451/plot/pkg/app"
	"github.com/plot451/plot/pkg/config"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
	"github.com/plot451/plot/pkg/infrastructure/eventbus"
	"github.com/plot451/plot/pkg/infrastructure/memory"
	"github.com/plot451/plot/pkg/infrastructure/sqlite"
	"github.com/plot451/plot/pkg/logger"
)

// services owns everything opened for one command invocation.
type services struct {
	container *app.Container
	bus       *eventbus.InProcessEventBus
	closers   []func() error
}

func openRepositories(cfg config.DatabaseConfig) (column.Repository, table.Repository, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewColumnRepository(), memory.NewTableRepository(), func() error { return nil }, nil
	case config.DriverSQLite3, config.DriverSQLite:
		db, err := sqlite.Open(cfg.Driver, cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewColumnRepository(db), sqlite.NewTableRepository(db), db.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openServices(cfg *config.Config) (*services, error) {
	columns, tables, closeDB, err := openRepositories(cfg.Database)
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	sv := &services{
		container: app.NewContainer(bus, columns, tables),
		bus:       bus,
		closers:   []func() error{closeDB},
	}

	if cfg.Events.AMQPURL != "" {
		sink, err := eventbus.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			sv.Close()
			return nil, err
		}
		bus.SubscribeAll(sink.Handler())
		sv.closers = append(sv.closers, sink.Close)
		logger.InfoCF("plot", "Forwarding events to AMQP", map[string]interface{}{
			"exchange": cfg.Events.Exchange,
		})
	}
	return sv, nil
}

// Close stops the bus first so no handler runs against a closed resource.
func (sv *services) Close() error {
	sv.bus.Close()
	var errs []error
	for i := len(sv.closers) - 1; i >= 0; i-- {
		if err := sv.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
