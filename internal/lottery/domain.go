package lottery

import "time"

// DayStatus enumerates the lottery business day lifecycle.
type DayStatus string

const (
	DayStatusOpen         DayStatus = "OPEN"
	DayStatusPendingClose DayStatus = "PENDING_CLOSE"
	DayStatusClosed       DayStatus = "CLOSED"
)

// PackStatus enumerates ticket pack lifecycle stages.
type PackStatus string

const (
	PackStatusActive   PackStatus = "ACTIVE"
	PackStatusDepleted PackStatus = "DEPLETED"
	PackStatusReturned PackStatus = "RETURNED"
)

// EntryMethod records how closing serials were captured.
type EntryMethod string

const (
	EntryMethodScan   EntryMethod = "SCAN"
	EntryMethodManual EntryMethod = "MANUAL"
)

// BusinessDay is one lottery accounting period for a store. At most one
// OPEN or PENDING_CLOSE day exists per store; historical days may share
// a calendar date after mid-day closes.
type BusinessDay struct {
	ID                    string
	StoreID               string
	BusinessDate          time.Time
	Status                DayStatus
	OpenedBy              *string
	OpenedAt              time.Time
	ClosedBy              *string
	ClosedAt              *time.Time
	PendingClose          *PendingCloseData
	PendingCloseBy        *string
	PendingCloseAt        *time.Time
	PendingCloseExpiresAt *time.Time
	SummaryID             *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PendingCloseData is the blob written at prepare and consumed at commit
// or cancel. It is never partially updated.
type PendingCloseData struct {
	Closings    []PackClosing `json:"closings"`
	EntryMethod EntryMethod   `json:"entry_method"`
	UserID      string        `json:"user_id"`
	ShiftID     string        `json:"shift_id"`
}

// PackClosing records the closing serial captured for a single pack.
type PackClosing struct {
	PackID        string `json:"pack_id" validate:"required,uuid"`
	ClosingSerial string `json:"closing_serial" validate:"required"`
	SoldOut       bool   `json:"sold_out"`
}

// Pack is a physical lottery ticket pack assigned to a bin. SerialEnd is
// the last valid ticket index, inclusive.
type Pack struct {
	ID          string
	StoreID     string
	PackNumber  string
	GameName    string
	GamePrice   float64
	SerialStart string
	SerialEnd   string
	Status      PackStatus
	BinOrder    int
	ActivatedAt time.Time
	DepletedAt  *time.Time
	DepletedBy  *string
}

// DayPack is the per-(day, pack) closing record. Its ending serial seeds
// the starting serial of the store's next business day.
type DayPack struct {
	DayID          string
	PackID         string
	StartingSerial string
	EndingSerial   string
	TicketsSold    int
	SalesAmount    float64
	EntryMethod    EntryMethod
	SoldOut        bool
}

// DepletedPackInfo identifies a pack depleted during commit. It is
// returned for post-commit cleanup (UPC deregistration) and never
// persisted here.
type DepletedPackInfo struct {
	PackID     string
	StoreID    string
	PackNumber string
	GameName   string
}

// CloseInput is the request payload shared by PrepareClose and the
// re-validation of stored pending data at commit.
type CloseInput struct {
	StoreID     string        `validate:"required,uuid"`
	ShiftID     string        `validate:"required,uuid"`
	UserID      string        `validate:"required,uuid"`
	EntryMethod EntryMethod   `validate:"required,oneof=SCAN MANUAL"`
	Closings    []PackClosing `validate:"required,min=1,dive"`
}

// BinBreakdown is the per-bin line of a close preview or result.
type BinBreakdown struct {
	BinOrder       int
	PackID         string
	PackNumber     string
	GameName       string
	StartingSerial string
	ClosingSerial  string
	SoldOut        bool
	TicketsSold    int
	Amount         float64
}

// PrepareResult is the preview returned by PrepareClose. Nothing in it
// has been committed to day packs yet.
type PrepareResult struct {
	DayID                 string
	BusinessDate          time.Time
	Status                DayStatus
	PendingCloseAt        time.Time
	PendingCloseExpiresAt time.Time
	ClosingsCount         int
	EstimatedTotal        float64
	Bins                  []BinBreakdown
}

// CommitResult is the durable outcome of CommitClose.
type CommitResult struct {
	DayID           string
	BusinessDate    time.Time
	ClosedAt        time.Time
	ClosingsCreated int
	LotteryTotal    float64
	Bins            []BinBreakdown
	Depleted        []DepletedPackInfo
}

// DayStatusView is the read-only projection returned by GetDayStatus.
type DayStatusView struct {
	DayID                 string
	StoreID               string
	BusinessDate          time.Time
	Status                DayStatus
	PendingCloseAt        *time.Time
	PendingCloseExpiresAt *time.Time
}

// StoreRef is the slice of the store catalog the close workflow needs.
type StoreRef struct {
	ID       string
	Name     string
	Timezone string
}

// Location resolves the store's IANA timezone, defaulting to UTC.
func (s StoreRef) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
