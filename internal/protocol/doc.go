// Package protocol abstracts query submission across the two supported
// transports: an asynchronous job-polling REST API and a synchronous
// database/sql driver connection. Both satisfy the same Engine contract but
// differ fundamentally in concurrency behavior: the REST engine supports true
// concurrent in-flight queries, while the driver engine serializes all
// execution through one shared connection.
package protocol
