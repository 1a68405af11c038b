// Package pipeline tracks sales deals across the stages of the procurement pipeline.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidStage = errors.New("invalid deal stage")
	ErrDealNotFound = errors.New("deal not found")
)

// Stage is the position of a deal in the pipeline.
type Stage string

const (
	StageLead        Stage = "lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageClosedWon   Stage = "closed-won"
	StageClosedLost  Stage = "closed-lost"
)

// Stages lists every stage in board order.
var Stages = []Stage{StageLead, StageQualified, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}

var stageLabels = map[Stage]string{
	StageLead:        "Lead",
	StageQualified:   "Qualified",
	StageProposal:    "Proposal",
	StageNegotiation: "Negotiation",
	StageClosedWon:   "Closed Won",
	StageClosedLost:  "Closed Lost",
}

// Label returns the display name of the stage.
func (s Stage) Label() string {
	return stageLabels[s]
}

// Valid reports whether s is one of Stages.
func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// ParseStage returns the stage named s.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if !stage.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStage, s)
	}
	return stage, nil
}

type Deal struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Value             decimal.Decimal `json:"value"`
	Stage             Stage           `json:"stage"`
	ContactID         string          `json:"contactId"`
	ContactName       string          `json:"contactName"`
	Company           string          `json:"company,omitempty"`
	Probability       *int            `json:"probability,omitempty"`
	ExpectedCloseDate *time.Time      `json:"expectedCloseDate,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}
