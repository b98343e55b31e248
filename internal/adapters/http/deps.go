package http

import (
	"github.com/nats-io/nats.go"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/postgres"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/valkey"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Farms        *usecases.FarmService
	Fields       *usecases.FieldService
	Catalog      *usecases.CatalogService
	WorkOrders   *usecases.WorkOrderService
	Applications *usecases.ApplicationService
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache

	// MaxLogBytes caps submitted flight logs; zero means 16 MiB.
	MaxLogBytes int64
}

func (d *Dependencies) maxLogBytes() int64 {
	if d.MaxLogBytes > 0 {
		return d.MaxLogBytes
	}
	return defaultMaxLogBytes
}
