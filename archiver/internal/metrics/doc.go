// Package metrics exports archiver run statistics as a Prometheus textfile.
//
// The archiver has no HTTP listener; instead Textfile.Write rewrites a .prom
// file after every iteration, which node_exporter's textfile collector picks
// up. Families are built as client_model messages and encoded with expfmt.
package metrics
