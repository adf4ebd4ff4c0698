package sm2

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchVerify verifies sigs[i] over msgs[i] for identity ids[i], all under
// pub, on up to WithWorkers goroutines. The result has one entry per input in
// input order and equals calling Verify on each tuple. An invalid tuple
// yields false for that entry only.
func (e *Engine) BatchVerify(ctx context.Context, pub *PublicKey, msgs, ids [][]byte, sigs []*Signature) ([]bool, error) {
	if len(msgs) != len(ids) || len(msgs) != len(sigs) {
		return nil, makeError(ErrBatchLengthMismatch,
			fmt.Sprintf("batch lengths differ: %d messages, %d identities, %d signatures",
				len(msgs), len(ids), len(sigs)))
	}

	results := make([]bool, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range msgs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Verify(pub, msgs[i], ids[i], sigs[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
