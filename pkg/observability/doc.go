/*
Package observability provides Prometheus collectors fed by the shell's
lifecycle hooks, for hosts that expose a metrics endpoint.
*/
package observability
