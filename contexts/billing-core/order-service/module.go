package orderservice

import (
	"log/slog"
	"time"

	httpadapter "memberhub/contexts/billing-core/order-service/adapters/http"
	"memberhub/contexts/billing-core/order-service/adapters/memory"
	"memberhub/contexts/billing-core/order-service/application/commands"
	"memberhub/contexts/billing-core/order-service/application/queries"
	"memberhub/contexts/billing-core/order-service/application/workers"
	"memberhub/contexts/billing-core/order-service/domain/entities"
	"memberhub/contexts/billing-core/order-service/ports"
)

type Module struct {
	Handler        httpadapter.Handler
	OverdueSweeper workers.OverdueSweeper
	OutboxRelay    workers.OutboxRelay
	RefundOrder    commands.RefundOrderUseCase
	CompleteOrder  commands.CompleteOrderUseCase
	Store          *memory.Store
}

type Dependencies struct {
	Orders          ports.OrderRepository
	Invoices        ports.InvoiceRepository
	Outbox          ports.OutboxRepository
	Locker          ports.EntityLocker
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	Publisher       ports.EventPublisher
	InvoiceDueDays  int
	Company         entities.CompanyInfo
	OutboxBatchSize int
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createOrder := commands.CreateOrderUseCase{
		Orders:      deps.Orders,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	markProcessing := commands.MarkOrderProcessingUseCase{
		Orders: deps.Orders,
		Locker: deps.Locker,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	completeOrder := commands.CompleteOrderUseCase{
		Orders:      deps.Orders,
		Locker:      deps.Locker,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	cancelOrder := commands.CancelOrderUseCase{
		Orders: deps.Orders,
		Locker: deps.Locker,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	refundOrder := commands.RefundOrderUseCase{
		Orders:   deps.Orders,
		Invoices: deps.Invoices,
		Locker:   deps.Locker,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	issueInvoice := commands.IssueInvoiceUseCase{
		Orders:      deps.Orders,
		Invoices:    deps.Invoices,
		Locker:      deps.Locker,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		DueInDays:   deps.InvoiceDueDays,
		Company:     deps.Company,
		Logger:      deps.Logger,
	}
	createInvoice := commands.CreateInvoiceUseCase{
		Invoices:    deps.Invoices,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		DueInDays:   deps.InvoiceDueDays,
		Company:     deps.Company,
		Logger:      deps.Logger,
	}
	sendInvoice := commands.SendInvoiceUseCase{
		Invoices:    deps.Invoices,
		Locker:      deps.Locker,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	markInvoicePaid := commands.MarkInvoicePaidUseCase{
		Invoices: deps.Invoices,
		Locker:   deps.Locker,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	cancelInvoice := commands.CancelInvoiceUseCase{
		Invoices: deps.Invoices,
		Locker:   deps.Locker,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	refundInvoice := commands.RefundInvoiceUseCase{
		Invoices: deps.Invoices,
		Locker:   deps.Locker,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}

	getOrder := queries.GetOrderUseCase{
		Orders: deps.Orders,
		Logger: deps.Logger,
	}
	listOrders := queries.ListOrdersByUserUseCase{
		Orders: deps.Orders,
		Logger: deps.Logger,
	}
	orderStats := queries.OrderStatusCountsUseCase{
		Orders: deps.Orders,
		Logger: deps.Logger,
	}
	getInvoice := queries.GetInvoiceUseCase{
		Invoices: deps.Invoices,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	listInvoices := queries.ListInvoicesByUserUseCase{
		Invoices: deps.Invoices,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	invoiceStats := queries.InvoiceStatusCountsUseCase{
		Invoices: deps.Invoices,
		Logger:   deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateOrder:         createOrder,
			MarkOrderProcessing: markProcessing,
			CompleteOrder:       completeOrder,
			CancelOrder:         cancelOrder,
			RefundOrder:         refundOrder,
			IssueInvoice:        issueInvoice,
			CreateInvoice:       createInvoice,
			SendInvoice:         sendInvoice,
			MarkInvoicePaid:     markInvoicePaid,
			CancelInvoice:       cancelInvoice,
			RefundInvoice:       refundInvoice,
			GetOrder:            getOrder,
			ListOrdersByUser:    listOrders,
			OrderStatusCounts:   orderStats,
			GetInvoice:          getInvoice,
			ListInvoicesByUser:  listInvoices,
			InvoiceStatusCounts: invoiceStats,
			Logger:              deps.Logger,
		},
		OverdueSweeper: workers.OverdueSweeper{
			Invoices: deps.Invoices,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
		RefundOrder:   refundOrder,
		CompleteOrder: completeOrder,
	}
}

func NewInMemoryModule(publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Orders:         store,
		Invoices:       store,
		Outbox:         store,
		Locker:         memory.NewLocker(2 * time.Second),
		Clock:          store,
		IDGenerator:    store,
		Publisher:      publisher,
		InvoiceDueDays: 30,
		Company: entities.CompanyInfo{
			Name:    "MemberHub Inc.",
			Email:   "billing@memberhub.test",
			Address: "1 Clubhouse Way",
			Country: "US",
		},
		OutboxBatchSize: 100,
		Logger:          logger,
	})
	module.Store = store
	return module
}
