package kos

import (
	"time"

	"github.com/google/uuid"
)

// Unlimited disables a quota; -1 keeps the value storable in an integer column.
const Unlimited = -1

// Plan is an entry of the subscription catalog.
type Plan struct {
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Price         int64     `json:"price"`
	MaxProperties int       `json:"max_properties"`
	MaxRooms      int       `json:"max_rooms"`
	Features      []string  `json:"features"`
	IsActive      bool      `json:"is_active"`
	SortOrder     int       `json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription binds an owner to a plan. Limits are a snapshot taken when the
// plan was assigned; later plan edits only reach it through ReapplyPlan.
type Subscription struct {
	OwnerID       uuid.UUID          `json:"owner_id"`
	PlanSlug      string             `json:"plan_slug"`
	MaxProperties int                `json:"max_properties"`
	MaxRooms      int                `json:"max_rooms"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       *time.Time         `json:"end_date,omitempty"`
	Status        SubscriptionStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// EffectiveStatus reads an active subscription whose end date has passed as expired.
func (s Subscription) EffectiveStatus(today time.Time) SubscriptionStatus {
	if s.Status == SubscriptionActive && s.EndDate != nil && s.EndDate.Before(dateOf(today)) {
		return SubscriptionExpired
	}
	return s.Status
}

type PropertyStatus string

const (
	PropertyDraft    PropertyStatus = "draft"
	PropertyActive   PropertyStatus = "active"
	PropertyInactive PropertyStatus = "inactive"
)

type Property struct {
	ID        uuid.UUID      `json:"id"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	Status    PropertyStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

type Room struct {
	ID         uuid.UUID  `json:"id"`
	PropertyID uuid.UUID  `json:"property_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Name       string     `json:"name"`
	Price      int64      `json:"price"`
	Capacity   int        `json:"capacity"`
	Status     RoomStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Tenant is a renter's stay in one room. CheckOutDate is nil iff IsActive.
type Tenant struct {
	ID           uuid.UUID  `json:"id"`
	RoomID       uuid.UUID  `json:"room_id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email,omitempty"`
	IsActive     bool       `json:"is_active"`
	CheckInDate  time.Time  `json:"check_in_date"`
	CheckOutDate *time.Time `json:"check_out_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type BillStatus string

const (
	BillUnpaid    BillStatus = "unpaid"
	BillPaid      BillStatus = "paid"
	BillOverdue   BillStatus = "overdue"
	BillCancelled BillStatus = "cancelled"
)

type Bill struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	BillNumber  string     `json:"bill_number"`
	BillDate    time.Time  `json:"bill_date"`
	DueDate     time.Time  `json:"due_date"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	Subtotal    int64      `json:"subtotal"`
	Total       int64      `json:"total"`
	Status      BillStatus `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	Items       []BillItem `json:"items,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EffectiveStatus derives overdue from the due date; it is never stored.
func (b Bill) EffectiveStatus(today time.Time) BillStatus {
	if b.Status == BillUnpaid && b.DueDate.Before(dateOf(today)) {
		return BillOverdue
	}
	return b.Status
}

type BillItem struct {
	ID          uuid.UUID `json:"id"`
	BillID      uuid.UUID `json:"bill_id"`
	Position    int       `json:"position"`
	Description string    `json:"description"`
	UnitAmount  int64     `json:"unit_amount"`
	Quantity    int       `json:"quantity"`
	LineTotal   int64     `json:"line_total"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
	MethodQRIS     PaymentMethod = "qris"
	MethodEWallet  PaymentMethod = "e-wallet"
	MethodOther    PaymentMethod = "other"
)

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []PaymentMethod{MethodCash, MethodTransfer, MethodQRIS, MethodEWallet, MethodOther}

type Payment struct {
	ID            uuid.UUID     `json:"id"`
	BillID        uuid.UUID     `json:"bill_id"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	PaymentNumber string        `json:"payment_number"`
	Amount        int64         `json:"amount"`
	PaymentDate   time.Time     `json:"payment_date"`
	Method        PaymentMethod `json:"payment_method"`
	ProofImage    string        `json:"proof_image,omitempty"`
	Status        PaymentStatus `json:"status"`
	ConfirmedAt   *time.Time    `json:"confirmed_at,omitempty"`
	ConfirmedBy   *uuid.UUID    `json:"confirmed_by,omitempty"`
	ReviewedAt    *time.Time    `json:"reviewed_at,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// dateOf truncates t to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
