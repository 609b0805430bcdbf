package main

import (
	"context"
	"fmt"
	"sync"
)

type result struct {
	path string
	// out is printed to stdout, in argument order, once every image is done.
	out string
	err error
}

type task func(ctx context.Context, path string) (string, error)

// runBatch runs fn for every path with at most workers calls in flight.
func runBatch(ctx context.Context, paths []string, workers int, fn task) []result {
	results := make([]result, len(paths))
	sem := make(chan struct{}, max(workers, 1))
	var wg sync.WaitGroup
	wg.Add(len(paths))
	for i, path := range paths {
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i].path = path
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return
			}
			results[i].out, results[i].err = fn(ctx, path)
		}(i, path)
	}
	wg.Wait()
	return results
}

// finish prints the output of the batch and logs its failures. The returned
// error carries the highest exit code among them.
func (a *app) finish(results []result) error {
	var (
		code   = exitOK
		failed int
	)
	for _, r := range results {
		if r.err != nil {
			failed++
			c := exitCode(r.err)
			code = max(code, c)
			a.log.Error().Err(r.err).Str("path", r.path).Int("exit_code", c).Msg("failed")
			continue
		}
		if r.out != "" {
			fmt.Fprint(a.stdout, r.out)
		}
	}
	if failed == 0 {
		return nil
	}
	return &exitError{code: code, err: fmt.Errorf("%d of %d images failed", failed, len(results))}
}
