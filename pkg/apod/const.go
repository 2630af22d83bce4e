package apod

import "time"

const (
	// chunkSize is the read size used when streaming an asset to disk.
	chunkSize = 32 * 1024

	// partSuffix marks a download in progress. Such files never survive a failed fetch.
	partSuffix = ".part"

	// pageDateLayout is the date part of the legacy archive page name (apYYMMDD.html).
	pageDateLayout = "060102"

	// mediaTypeImage is the media_type value for still pictures.
	mediaTypeImage = "image"

	// codeNoResource is the "code" the API returns when it has nothing for a date.
	codeNoResource = 500
)

// NetworkTimeouts defines the standard durations for the transport below the per-request timeout.
const (
	// HTTPClientDialerTimeout is the timeout for establishing a TCP connection.
	HTTPClientDialerTimeout = 15 * time.Second

	// HTTPClientTLSHandshakeTimeout is the time limit for the TLS handshake.
	HTTPClientTLSHandshakeTimeout = 10 * time.Second

	// HTTPClientResponseHeaderTimeout is the time limit for receiving response headers
	// after the request has been sent.
	HTTPClientResponseHeaderTimeout = 15 * time.Second

	// HTTPClientKeepAlive is the duration for TCP keep-alive probes.
	HTTPClientKeepAlive = 30 * time.Second
)
