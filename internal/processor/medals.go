package processor

import (
	"context"

	"github.com/beatpulse/score-statistics/internal/medals"
	"github.com/beatpulse/score-statistics/internal/models"
)

// Medals runs the award engine after the user's stats are committed.
// Awarding writes the achievement fact outside the per-user transaction,
// so it lives in ApplyGlobal.
type Medals struct {
	engine *medals.Engine
}

func NewMedals(engine *medals.Engine) *Medals {
	return &Medals{engine: engine}
}

func (*Medals) Name() string            { return "medals" }
func (*Medals) Order() int              { return 60 }
func (*Medals) RunOnFailedScores() bool { return false }
func (*Medals) RunOnLegacyScores() bool { return false }

func (*Medals) Apply(context.Context, *models.Score, *models.UserStats) error { return nil }

func (*Medals) Revert(context.Context, *models.Score, *models.UserStats, int) error { return nil }

func (m *Medals) ApplyGlobal(ctx context.Context, score *models.Score) error {
	return m.engine.Check(ctx, score)
}
