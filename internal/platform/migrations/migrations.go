package migrations

import (
	"gorm.io/gorm"

	catalogpostgres "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/persistence/postgres"
	customerspostgres "github.com/Apurer/go-gin-storefront/internal/domains/customers/adapters/persistence/postgres"
	orderspostgres "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/postgres"
	promospostgres "github.com/Apurer/go-gin-storefront/internal/domains/promos/adapters/persistence/postgres"
)

// Models returns every table owned by the bounded contexts.
func Models() []any {
	var models []any
	models = append(models, catalogpostgres.Models()...)
	models = append(models, customerspostgres.Models()...)
	models = append(models, promospostgres.Models()...)
	models = append(models, orderspostgres.Models()...)
	return models
}

// Run applies the schema for the bounded contexts.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(Models()...)
}
