package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/mwesox/menuvo-payments/core"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	queueOptions []QueueStoreOption

	eventStore *EventStore
	queueStore *QueueStore
}

func NewRepositoryFactory(queueOptions ...QueueStoreOption) *RepositoryFactory {
	return &RepositoryFactory{queueOptions: queueOptions}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, queueOptions ...QueueStoreOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(queueOptions...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, queueOptions ...QueueStoreOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(queueOptions...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.eventStore != nil && f.queueStore != nil {
		return f, nil
	}

	eventStore, err := NewEventStore(f.db)
	if err != nil {
		return nil, err
	}
	queueStore, err := NewQueueStore(f.db, f.queueOptions...)
	if err != nil {
		return nil, err
	}
	f.eventStore = eventStore
	f.queueStore = queueStore
	return f, nil
}

func (f *RepositoryFactory) EventStore() core.EventStore {
	if f == nil || f.eventStore == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) EventQueue() core.EventQueue {
	if f == nil || f.queueStore == nil {
		return nil
	}
	return f.queueStore
}

// SQLEventStore exposes the concrete store for operations outside the core
// contract, such as dead-letter replay.
func (f *RepositoryFactory) SQLEventStore() *EventStore {
	if f == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
