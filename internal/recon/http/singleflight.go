package http

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/kencana-erp/kencana/internal/recon"
)

var reportGroup singleflight.Group

func singleflightReport(ctx context.Context, key string, fn func(context.Context) (recon.Report, error)) (recon.Report, error, bool) {
	resultChan := reportGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return recon.Report{}, ctx.Err(), false
	case res := <-resultChan:
		report, _ := res.Val.(recon.Report)
		return report, res.Err, res.Shared
	}
}
