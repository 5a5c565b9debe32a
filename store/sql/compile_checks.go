package sqlstore

import (
	"github.com/mwesox/menuvo-payments/core"
	"github.com/mwesox/menuvo-payments/query"
)

var (
	_ core.EventStore    = (*EventStore)(nil)
	_ core.EventStore    = (*CachedEventStore)(nil)
	_ query.EventLister  = (*EventStore)(nil)
	_ core.EventQueue    = (*QueueStore)(nil)
	_ core.StoreProvider = (*RepositoryFactory)(nil)
)
