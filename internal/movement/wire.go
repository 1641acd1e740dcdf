package movement

import (
	"database/sql"

	"go.uber.org/zap"

	"repuestos/internal/commons"
	"repuestos/internal/config"
	"repuestos/internal/infrastructure/metrics"
	"repuestos/internal/infrastructure/mysql"
	"repuestos/internal/movement/controller"
	"repuestos/internal/movement/repository"
	"repuestos/internal/movement/service"
	"repuestos/internal/movement/usecase"
	productrepo "repuestos/internal/product/repository"
)

type Module struct {
	Controller *controller.MovementController
	Ledger     *service.LedgerService
}

func NewModule(db *sql.DB, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Module {
	movementRepo := repository.NewMySQLMovementRepository(db)
	productRepo := productrepo.NewMySQLProductRepository(db)
	txRunner := mysql.NewTxRunner(db, cfg.Ledger.TxTimeout)

	ledger := service.NewLedgerService(txRunner, productRepo, movementRepo, m, logger)
	query := usecase.NewMovementQueryUseCase(productRepo, movementRepo, logger)

	return &Module{
		Controller: controller.NewMovementController(ledger, query, commons.NewValidator(), logger),
		Ledger:     ledger,
	}
}
