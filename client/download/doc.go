// Package download streams HTTP response bodies to disk.
//
// [Handle] writes the body to a temporary file alongside the destination
// path and renames it into place only after every check passed, so a
// reader never observes a partial file:
//
//	n, err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, logger,
//		download.WithMaxBytes(100<<20),
//		download.WithHash(sha256.New()),
//		download.WithVerify(func(f *os.File, h http.Header) error { return check(f) }),
//	)
//
// Most callers should use the higher-level
// [github.com/adamwoolhether/fetchguard/client] package, which invokes
// Handle internally and re-exports the download options.
package download
