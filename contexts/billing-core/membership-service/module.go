package membershipservice

import (
	"log/slog"
	"time"

	httpadapter "memberhub/contexts/billing-core/membership-service/adapters/http"
	"memberhub/contexts/billing-core/membership-service/adapters/memory"
	"memberhub/contexts/billing-core/membership-service/application/commands"
	"memberhub/contexts/billing-core/membership-service/application/queries"
	"memberhub/contexts/billing-core/membership-service/application/workers"
	"memberhub/contexts/billing-core/membership-service/ports"
)

type Module struct {
	Handler          httpadapter.Handler
	ExpiryNotifier   workers.ExpiryNotifier
	RefundMembership commands.RefundMembershipUseCase
	Store            *memory.Store
	Gateway          ports.PaymentGateway
}

type Dependencies struct {
	Memberships        ports.MembershipRepository
	Dedup              ports.EventDedup
	Gateway            ports.PaymentGateway
	Billing            ports.BillingReconciler
	Locker             ports.EntityLocker
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	Publisher          ports.EventPublisher
	TeamTierPriceCents int64
	PeriodDays         int
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	cancelMembership := commands.CancelMembershipUseCase{
		Memberships: deps.Memberships,
		Locker:      deps.Locker,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	refundMembership := commands.RefundMembershipUseCase{
		Memberships: deps.Memberships,
		Gateway:     deps.Gateway,
		Billing:     deps.Billing,
		Locker:      deps.Locker,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	renewMembership := commands.RenewMembershipUseCase{
		Memberships: deps.Memberships,
		Locker:      deps.Locker,
		Clock:       deps.Clock,
		PeriodDays:  deps.PeriodDays,
		Logger:      deps.Logger,
	}
	adminCreate := commands.AdminCreateMembershipUseCase{
		Memberships: deps.Memberships,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		PeriodDays:  deps.PeriodDays,
		Logger:      deps.Logger,
	}
	createTeamUpgradeIntent := commands.CreateTeamUpgradeIntentUseCase{
		Memberships:        deps.Memberships,
		Gateway:            deps.Gateway,
		Clock:              deps.Clock,
		TeamTierPriceCents: deps.TeamTierPriceCents,
		PeriodDays:         deps.PeriodDays,
		Logger:             deps.Logger,
	}
	paymentSucceeded := commands.HandlePaymentSucceededUseCase{
		Memberships: deps.Memberships,
		Billing:     deps.Billing,
		Locker:      deps.Locker,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		PeriodDays:  deps.PeriodDays,
		Logger:      deps.Logger,
	}
	chargeRefunded := commands.HandleChargeRefundedUseCase{
		Memberships: deps.Memberships,
		Billing:     deps.Billing,
		Locker:      deps.Locker,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	processWebhook := commands.ProcessGatewayWebhookUseCase{
		Gateway:          deps.Gateway,
		Dedup:            deps.Dedup,
		PaymentSucceeded: paymentSucceeded,
		ChargeRefunded:   chargeRefunded,
		Clock:            deps.Clock,
		Logger:           deps.Logger,
	}

	getMembership := queries.GetMembershipUseCase{
		Memberships: deps.Memberships,
		Logger:      deps.Logger,
	}
	teamUpgradeDetails := queries.GetTeamUpgradeDetailsUseCase{
		Memberships:        deps.Memberships,
		Clock:              deps.Clock,
		TeamTierPriceCents: deps.TeamTierPriceCents,
		PeriodDays:         deps.PeriodDays,
		Logger:             deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CancelMembership:        cancelMembership,
			RefundMembership:        refundMembership,
			RenewMembership:         renewMembership,
			AdminCreateMembership:   adminCreate,
			CreateTeamUpgradeIntent: createTeamUpgradeIntent,
			ProcessGatewayWebhook:   processWebhook,
			GetMembership:           getMembership,
			GetTeamUpgradeDetails:   teamUpgradeDetails,
			Logger:                  deps.Logger,
		},
		ExpiryNotifier: workers.ExpiryNotifier{
			Memberships: deps.Memberships,
			Publisher:   deps.Publisher,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		RefundMembership: refundMembership,
		Gateway:          deps.Gateway,
	}
}

func NewInMemoryModule(billing ports.BillingReconciler, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	module := NewModule(Dependencies{
		Memberships:        store,
		Dedup:              store,
		Gateway:            gateway,
		Billing:            billing,
		Locker:             memory.NewLocker(2 * time.Second),
		Clock:              store,
		IDGenerator:        store,
		Publisher:          publisher,
		TeamTierPriceCents: 5000,
		PeriodDays:         365,
		Logger:             logger,
	})
	module.Store = store
	return module
}
