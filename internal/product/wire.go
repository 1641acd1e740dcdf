package product

import (
	"database/sql"

	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/config"
	"repuestos/internal/infrastructure/metrics"
	"repuestos/internal/infrastructure/mysql"
	"repuestos/internal/product/controller"
	"repuestos/internal/product/repository"
	"repuestos/internal/product/service"
	"repuestos/internal/product/usecase"
)

func NewModule(db *sql.DB, cfg *config.Config, ledger service.Ledger, m *metrics.Metrics, logger *zap.Logger) *controller.ProductController {
	productRepo := repository.NewMySQLProductRepository(db)
	txRunner := mysql.NewTxRunner(db, cfg.Ledger.TxTimeout)

	catalog := service.NewCatalogService(txRunner, productRepo, ledger, logger)
	search := usecase.NewSearchUseCase(productRepo, m, logger)

	return controller.NewProductController(search, catalog, commons.NewValidator(), logger)
}
