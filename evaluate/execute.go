package evaluate

import (
	"context"

	"github.com/shardsql/shardsql/engine"
)

type Executor interface {
	Execute(ctx context.Context, eng *engine.Engine, tx engine.Transaction) (int64, error)
}
