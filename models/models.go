package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Сущность Организации (участник торгов)
type Organization struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Заявки (bid) с суммой и заявленной целью MBE
type Bid struct {
	ID                 int             `db:"id" json:"id"`
	OrganizationID     int             `db:"organization_id" json:"organizationId"`
	SolicitationNumber string          `db:"solicitation_number" json:"solicitationNumber"`
	TotalAmount        decimal.Decimal `db:"total_amount" json:"totalAmount"`
	MBEGoal            decimal.Decimal `db:"mbe_goal" json:"mbeGoal"`
	ValidatedAt        *time.Time      `db:"validated_at" json:"validatedAt,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	LineItems          []LineItem      `db:"-" json:"lineItems"`
}

// Validated сообщает, проходила ли заявка проверку хотя бы раз
func (b *Bid) Validated() bool {
	return b.ValidatedAt != nil
}

// Строка заявки: работа субподрядчика внутри bid
type LineItem struct {
	ID              int             `db:"id" json:"id"`
	BidID           int             `db:"bid_id" json:"bidId"`
	SubcontractorID int             `db:"subcontractor_id" json:"subcontractorId"`
	WorkDescription string          `db:"work_description" json:"workDescription"`
	NAICSCode       string          `db:"naics_code" json:"naicsCode"`
	Value           decimal.Decimal `db:"value" json:"value"`
	CountsTowardMBE bool            `db:"counts_toward_mbe" json:"countsTowardMbe"`
	Breakdown       Breakdown       `db:"category_breakdown" json:"categoryBreakdown,omitempty"`
}

// Локальная для организации запись субподрядчика
type Subcontractor struct {
	ID                  int       `db:"id" json:"id"`
	OrganizationID      int       `db:"organization_id" json:"organizationId"`
	LegalName           string    `db:"legal_name" json:"legalName"`
	CertificationNumber string    `db:"certification_number" json:"certificationNumber"`
	DirectoryID         *int      `db:"directory_id" json:"directoryId,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
}

// Запись справочника сертифицированных субподрядчиков
type DirectoryRecord struct {
	ID                int             `db:"id" json:"id"`
	LegalName         string          `db:"legal_name" json:"legalName"`
	FederalID         string          `db:"federal_id" json:"federalId"`
	Certifications    Certifications  `db:"certifications" json:"certifications"`
	JurisdictionCodes pq.StringArray  `db:"jurisdiction_codes" json:"jurisdictionCodes"`
	NAICSCodes        pq.StringArray  `db:"naics_codes" json:"naicsCodes"`
	Capabilities      string          `db:"capabilities" json:"capabilities"`
	ContactEmail      string          `db:"contact_email" json:"contactEmail"`
	Rating            decimal.Decimal `db:"rating" json:"rating"`
	ProjectsCompleted int             `db:"projects_completed" json:"projectsCompleted"`
	IsVerified        bool            `db:"is_verified" json:"isVerified"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// HasNAICS проверяет, указан ли код NAICS в справочнике
func (d *DirectoryRecord) HasNAICS(code string) bool {
	for _, c := range d.NAICSCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Юрисдикция с типичными целями участия
type Jurisdiction struct {
	ID              int                 `db:"id" json:"id"`
	Code            string              `db:"code" json:"code"`
	Name            string              `db:"name" json:"name"`
	MBEGoalTypical  decimal.NullDecimal `db:"mbe_goal_typical" json:"mbeGoalTypical"`
	VSBEGoalTypical decimal.NullDecimal `db:"vsbe_goal_typical" json:"vsbeGoalTypical"`
}

// Правило соответствия, привязанное к юрисдикции
type ComplianceRule struct {
	ID               int            `db:"id" json:"id"`
	JurisdictionID   int            `db:"jurisdiction_id" json:"jurisdictionId"`
	JurisdictionCode string         `db:"jurisdiction_code" json:"jurisdictionCode"`
	Name             string         `db:"rule_name" json:"ruleName"`
	Type             string         `db:"rule_type" json:"ruleType"`
	Severity         string         `db:"severity" json:"severity"`
	Definition       RuleDefinition `db:"rule_definition" json:"ruleDefinition"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
}

const (
	SeverityError   = "ERROR"
	SeverityWarning = "WARNING"
)

// Результат одной проверки в прогоне валидации
type ValidationResult struct {
	ID        int       `db:"id" json:"id"`
	BidID     int       `db:"bid_id" json:"bidId"`
	RunID     uuid.UUID `db:"run_id" json:"runId"`
	Check     string    `db:"rule_name" json:"ruleName"`
	Status    string    `db:"status" json:"status"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusWarning = "WARNING"
)

// Государственная закупка (возможность для участия)
type Opportunity struct {
	ID                 int             `db:"id" json:"id"`
	SolicitationNumber string          `db:"solicitation_number" json:"solicitationNumber"`
	Title              string          `db:"title" json:"title"`
	JurisdictionID     *int            `db:"jurisdiction_id" json:"jurisdictionId,omitempty"`
	JurisdictionCode   string          `db:"jurisdiction_code" json:"jurisdictionCode"`
	Agency             string          `db:"agency" json:"agency"`
	MBEGoal            decimal.Decimal `db:"mbe_goal" json:"mbeGoal"`
	VSBEGoal           decimal.Decimal `db:"vsbe_goal" json:"vsbeGoal"`
	TotalValue         decimal.Decimal `db:"total_value" json:"totalValue"`
	NAICSCodes         pq.StringArray  `db:"naics_codes" json:"naicsCodes"`
	DueDate            *time.Time      `db:"due_date" json:"dueDate,omitempty"`
	PostedDate         *time.Time      `db:"posted_date" json:"postedDate,omitempty"`
	IsActive           bool            `db:"is_active" json:"isActive"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
}

// Оценка риска участия организации в закупке
type Assessment struct {
	ID                      int               `db:"id" json:"id"`
	OrganizationID          int               `db:"organization_id" json:"organizationId"`
	OpportunityID           int               `db:"opportunity_id" json:"opportunityId"`
	RiskScore               int               `db:"risk_score" json:"riskScore"`
	MBEGap                  decimal.Decimal   `db:"mbe_gap" json:"mbeGap"`
	VSBEGap                 decimal.Decimal   `db:"vsbe_gap" json:"vsbeGap"`
	AvailableSubcontractors int               `db:"available_subcontractors" json:"availableSubcontractors"`
	Recommendation          string            `db:"recommendation" json:"recommendation"`
	Reason                  string            `db:"recommendation_reason" json:"recommendationReason"`
	AssessedAt              time.Time         `db:"assessed_at" json:"assessedAt"`
	RiskFactors             []string          `db:"-" json:"riskFactors,omitempty"`
	MatchingSubcontractors  []DirectoryRecord `db:"-" json:"matchingSubcontractors,omitempty"`
}

const (
	RecommendationBid     = "BID"
	RecommendationCaution = "CAUTION"
	RecommendationNoBid   = "NO_BID"
)

// Фильтр поиска подходящих субподрядчиков в справочнике
type MatchFilter struct {
	NAICSCodes       []string
	JurisdictionCode string
	Category         string
	MinRating        decimal.Decimal
}

// Сводка оценок по организации
type AssessmentSummary struct {
	OrganizationID   int             `json:"organizationId"`
	TotalAssessments int             `json:"totalAssessments"`
	BidCount         int             `json:"bidCount"`
	CautionCount     int             `json:"cautionCount"`
	NoBidCount       int             `json:"noBidCount"`
	AverageRiskScore decimal.Decimal `json:"averageRiskScore"`
}
