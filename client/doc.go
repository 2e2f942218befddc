// Package client provides the configurable HTTP client used to reach
// remote origins, built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("fetchguard/1.0"),
//		client.WithRedirectCheck(guard.CheckRedirect(policy)),
//	)
//
// # Making Requests
//
// Construct a [URL] and [Request], then execute with [Client.Do]:
//
//	u := client.URL("https", "api.example.com", "/v1/resource")
//	req, err := client.Request(ctx, u, http.MethodGet)
//	var hdr http.Header
//	err = c.Do(req, http.StatusOK, client.WithResponseHeader(&hdr))
//
// Pass an expected status of zero to accept any 2xx response.
//
// # Downloading Files
//
// Stream a response body directly to disk with a size cap, a digest and
// a verification hook that runs before the file becomes visible:
//
//	n, err := c.Download(req, 0, "/tmp/file.bin",
//		client.WithMaxBytes(100<<20),
//		client.WithHash(sha256.New()),
//		client.WithVerify(checkType),
//	)
//
// For lower-level control see the
// [github.com/adamwoolhether/fetchguard/client/download] package.
package client
