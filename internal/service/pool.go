package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/bnema/anyconv/internal/infrastructure/logger"
)

// task is one file conversion scheduled into the batch pool.
type task struct {
	src      domain.FilePathSet
	category domain.Category
	format   string
	// run performs the conversion and returns the output path.
	run func(ctx context.Context, jobID string) (string, error)
}

type taskResult struct {
	task    task
	outPath string
	err     error
}

// runPool executes tasks on a bounded pool sized by MAX_WORKERS. Results
// stream back to the calling goroutine, where post-processing runs in
// completion order. A failed task is logged and recorded; the batch
// continues.
func (c *Converter) runPool(ctx context.Context, env runEnv, tasks []task) {
	if len(tasks) == 0 {
		return
	}

	results := make(chan taskResult)
	go func() {
		var g errgroup.Group
		g.SetLimit(poolSize())
		for _, t := range tasks {
			t := t
			g.Go(func() error {
				jobID := newJobID()
				desc := fmt.Sprintf("%s.%s -> %s", t.src.Stem, t.src.Ext, t.format)
				if c.sink != nil {
					c.sink.Start(jobID, desc, 0)
				}

				outPath, err := t.run(ctx, jobID)
				if c.sink != nil {
					if err != nil {
						c.sink.Error(jobID, err)
					} else {
						c.sink.Done(jobID)
					}
				}
				select {
				case results <- taskResult{task: t, outPath: outPath, err: err}:
				case <-ctx.Done():
				}
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	for res := range results {
		if res.err == nil && res.outPath == "" {
			// task opted out (e.g. nothing to extract)
			continue
		}
		if res.err != nil {
			logger.Error.Printf("[!] %s.%s: %v",
				logger.Sanitize(res.task.src.Stem), res.task.src.Ext, res.err)
			c.record(res.task.src, res.outPath, res.task.format, domain.JobStatusError, res.err.Error())
			continue
		}
		if err := c.finish(env, res.task.src, res.task.category, res.outPath, res.task.format); err != nil {
			logger.Error.Printf("[!] post-process %s: %v", logger.Sanitize(res.outPath), err)
			c.record(res.task.src, res.outPath, res.task.format, domain.JobStatusError, err.Error())
		}
	}
}
