// Package resilience provides capacity guards for stream endpoints.
//
//   - Bulkhead: caps the number of concurrently held slots, one per open
//     stream reader. Acquisition never waits.
//   - RateLimiter: token bucket for bursty callers such as emission
//     endpoints.
//
// Both report refusals as *errors.AppError values that map to HTTP 503 and
// 429 respectively.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "readers", MaxConcurrent: 100})
//	release, err := bh.TryAcquire()
//	if err != nil {
//	    return err
//	}
//	defer release()
package resilience
