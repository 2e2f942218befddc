// Package throttle limits outbound traffic using the token-bucket
// algorithm from [golang.org/x/time/rate].
//
// [NewRoundTripper] caps the number of requests per second issued
// through an [http.RoundTripper]:
//
//	rt, err := throttle.NewRoundTripper(
//		10, // requests per second
//		5,  // burst capacity
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// [NewReader] caps the bytes per second read from a response body:
//
//	body, err := throttle.NewReader(ctx, resp.Body, 2<<20)
//
// Both block until tokens are available or the context ends.
package throttle
