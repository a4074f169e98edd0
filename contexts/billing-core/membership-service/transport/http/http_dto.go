// Package http defines the wire-level request and response DTOs for the
// membership service. Money travels as integer cents; timestamps as RFC3339.
package http

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MembershipDTO struct {
	MembershipID  string `json:"membership_id"`
	UserID        string `json:"user_id"`
	TypeConfigID  string `json:"type_config_id"`
	TypeName      string `json:"type_name"`
	Tier          string `json:"tier"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	PaymentRef    string `json:"payment_ref,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
	AutoRenew     bool   `json:"auto_renew"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CancelReason  string `json:"cancel_reason,omitempty"`
	CancelledBy   string `json:"cancelled_by,omitempty"`
	TeamAddon     bool   `json:"team_addon"`
	TeamName      string `json:"team_name,omitempty"`
	RefundPending bool   `json:"refund_pending"`
	AdminGrant    bool   `json:"admin_grant"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type GetMembershipResponse struct {
	Membership MembershipDTO `json:"membership"`
}

type CancelMembershipRequest struct {
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
}

type CancelMembershipResponse struct {
	Message          string        `json:"message"`
	EffectiveEndDate string        `json:"effective_end_date"`
	Membership       MembershipDTO `json:"membership"`
}

type RefundMembershipRequest struct {
	Reason string `json:"reason"`
}

type RefundMembershipResponse struct {
	Message    string        `json:"message"`
	Refunded   bool          `json:"refunded"`
	Membership MembershipDTO `json:"membership"`
}

type RenewMembershipResponse struct {
	Membership MembershipDTO `json:"membership"`
}

type TeamUpgradeDetailsResponse struct {
	Eligible          bool   `json:"eligible"`
	Reason            string `json:"reason,omitempty"`
	OriginalPrice     string `json:"original_price"`
	DaysRemaining     int    `json:"days_remaining"`
	ProRatedPrice     string `json:"pro_rated_price"`
	MembershipEndDate string `json:"membership_end_date,omitempty"`
}

type CreateTeamUpgradeIntentRequest struct {
	MembershipID    string `json:"membership_id"`
	TeamName        string `json:"team_name"`
	TeamDescription string `json:"team_description"`
}

type CreateTeamUpgradeIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	ProRatedPrice   string `json:"pro_rated_price"`
	DaysRemaining   int    `json:"days_remaining"`
}

type AdminCreateMembershipRequest struct {
	UserID       string `json:"user_id"`
	TypeConfigID string `json:"type_config_id"`
	TypeName     string `json:"type_name"`
	Tier         string `json:"tier"`
	Price        string `json:"price"`
	Currency     string `json:"currency"`
	StartDate    string `json:"start_date,omitempty"`
	PeriodDays   int    `json:"period_days,omitempty"`
}

type AdminCreateMembershipResponse struct {
	Membership MembershipDTO `json:"membership"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
