package httpapi

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// jobTimeout controls the maximum duration the HTTP layer waits on a
// submitted job before giving up on the client connection. Zero means no
// additional timeout beyond server/connection timeouts. The job itself is
// not canceled; Submit has no preemption, so a timed-out response just
// stops waiting for a result that may still arrive and be discarded.
var jobTimeout = int64(0) // seconds

// SetJobTimeoutSeconds sets the job wait timeout in seconds (0 disables).
func SetJobTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	jobTimeout = sec
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
