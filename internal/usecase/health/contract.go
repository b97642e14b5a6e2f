package health

import "context"

// DBPinger checks vector store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks that the embedding backend is reachable.
type ModelChecker interface {
	Load(ctx context.Context) error
}
