// Package linernotes enriches named entities (artists, bands, works) with a
// biography and a set of fun facts fetched from a remote catalog.
//
// Each Enrich call resolves the raw name to a canonical id and then fetches
// every content slot concurrently. Slots are independent: one failing slot
// never hides the others, and every failure is classified into a small set of
// kinds that callers can turn into user-facing text with FallbackMessage.
//
// # Features
//
//   - TTL cache: payloads are cached per (entity, slot) with per-slot TTLs
//     and a bounded entry count, on memory, Redis, SQL or DynamoDB substrates
//   - Retries: transient failures are retried with exponential backoff and
//     jitter; offline retries wake early once connectivity returns
//   - Upstream guard: catalog calls run behind a bulkhead and circuit breaker
//   - De-duplication: concurrent callers share one fetch per slot
//   - Observability: in-process metrics, DataDog and Prometheus backends
//
// # Quick Start
//
//	client, err := linernotes.NewFromFile("linernotes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Enrich(ctx, "Queen")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, slot := range client.Slots() {
//	    if text, ok := res.Payload(slot); ok {
//	        fmt.Println(slot, text)
//	    } else if kind, ok := res.Err(slot); ok {
//	        fmt.Println(slot, linernotes.FallbackMessage(kind))
//	    }
//	}
//
// # Custom Collaborators
//
// New accepts any EntityResolver and ContentFetcher, which is the easiest way
// to put the cache and retry executor in front of a different backend:
//
//	client, err := linernotes.New(linernotes.Config(),
//	    linernotes.ResolverFunc(resolve),
//	    linernotes.FetcherFunc(fetch),
//	    linernotes.WithSlots(linernotes.Bio()),
//	)
//
// # Thread Safety
//
// A Client is safe for concurrent use. Close waits for in-flight calls up to
// the shutdown timeout.
package linernotes
