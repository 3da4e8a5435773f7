package filter

import (
	"context"

	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/service"
)

// Analyzer classifies a single input. It is satisfied by *service.Service.
type Analyzer interface {
	Analyze(ctx context.Context, input core.AnalysisInput) (*service.Report, error)
}
