// Package domain defines the runner's collaborator ports
package domain

import (
	"context"

	"footfall/internal/adapters/wifiscan"
	aggdom "footfall/internal/services/aggregate/domain"
)

// HasherPort turns a station identifier into a presence token
type HasherPort interface {
	Token(id [wifiscan.BSSIDLen]byte) string
}

// SyncPort is the post-flush hook into the cloud orchestrator
type SyncPort interface {
	Sync(ctx context.Context, cycle aggdom.CycleSnapshot) error
}
