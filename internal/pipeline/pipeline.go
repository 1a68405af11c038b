package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

// Column is one stage of the board.
type Column struct {
	Stage Stage           `json:"stage"`
	Label string          `json:"label"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Deals []Deal          `json:"deals"`
}

// Pipeline holds the deals in memory.
type Pipeline struct {
	mu     sync.RWMutex
	deals  []Deal
	logger *slog.Logger
}

// New builds a pipeline from deals. Deals with an unknown stage are dropped and logged.
func New(deals []Deal, logger *slog.Logger) *Pipeline {
	logger = logger.With("component", "pipeline")
	kept := make([]Deal, 0, len(deals))
	for _, d := range deals {
		if !d.Stage.Valid() {
			logger.Warn("Skipping deal with unknown stage", "ID", d.ID, "stage", d.Stage)
			continue
		}
		kept = append(kept, d)
	}
	return &Pipeline{
		deals:  kept,
		logger: logger,
	}
}

// Board groups the deals by stage in pipeline order, keeping insertion order within a stage.
func (p *Pipeline) Board() []Column {
	p.mu.RLock()
	defer p.mu.RUnlock()

	columns := make([]Column, len(Stages))
	index := make(map[Stage]int, len(Stages))
	for i, stage := range Stages {
		columns[i] = Column{Stage: stage, Label: stage.Label(), Total: decimal.Zero, Deals: []Deal{}}
		index[stage] = i
	}
	for _, d := range p.deals {
		c := &columns[index[d.Stage]]
		c.Deals = append(c.Deals, d)
		c.Count++
		c.Total = c.Total.Add(d.Value)
	}
	return columns
}

// MoveDealStage moves the deal to stage.
func (p *Pipeline) MoveDealStage(ctx context.Context, dealID string, stage Stage) (Deal, error) {
	if !stage.Valid() {
		return Deal{}, fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}

	p.mu.Lock()
	idx := slices.IndexFunc(p.deals, func(d Deal) bool { return d.ID == dealID })
	if idx < 0 {
		p.mu.Unlock()
		return Deal{}, fmt.Errorf("%w: %s", ErrDealNotFound, dealID)
	}
	from := p.deals[idx].Stage
	p.deals[idx].Stage = stage
	moved := p.deals[idx]
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Deal moved", "ID", dealID, "from", from, "to", stage)
	return moved, nil
}
