package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/metrics"
)

// toggleOp flips the presence of one relation record. The unique constraint on
// the relation closes the race between concurrent toggles: a losing insert is
// swallowed by ON CONFLICT and still reports the relation as present.
type toggleOp struct {
	relation string
	// exists selects 1 when the toggle target resolves.
	exists     string
	existsArgs []any
	remove     string
	insert     string
	args       []any
	insertArgs []any
}

func toggle(ctx context.Context, pool db.Pool, op toggleOp) (on bool, err error) {
	name := op.relation + ".toggle"
	defer metrics.TrackQuery(name)()

	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		var found int
		if err := tx.QueryRow(ctx, op.exists, op.existsArgs...).Scan(&found); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, op.remove, op.args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			on = false
			return nil
		}

		if _, err := tx.Exec(ctx, op.insert, op.insertArgs...); err != nil {
			return err
		}
		on = true
		return nil
	})
	if err != nil {
		return false, mapError(name, err)
	}

	metrics.Toggles.WithLabelValues(op.relation, metrics.ToggleState(on)).Inc()
	return on, nil
}
