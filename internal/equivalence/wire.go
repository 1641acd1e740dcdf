package equivalence

import (
	"database/sql"

	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/config"
	"repuestos/internal/equivalence/controller"
	"repuestos/internal/equivalence/repository"
	"repuestos/internal/equivalence/service"
	"repuestos/internal/infrastructure/metrics"
	"repuestos/internal/infrastructure/mysql"
	productrepo "repuestos/internal/product/repository"
)

func NewModule(db *sql.DB, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *controller.EquivalenceController {
	equivalenceRepo := repository.NewMySQLEquivalenceRepository(db)
	productRepo := productrepo.NewMySQLProductRepository(db)
	txRunner := mysql.NewTxRunner(db, cfg.Ledger.TxTimeout)

	graph := service.NewGraphService(txRunner, productRepo, equivalenceRepo, m, logger)

	return controller.NewEquivalenceController(graph, commons.NewValidator(), logger)
}
