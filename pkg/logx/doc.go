// Package logx is epicscheduler's structured logger, a thin layer over zerolog.
//
// Loggers handed out by a Service follow Service.Apply, so a logging config
// reload changes level and sinks without rebuilding any component. The zero
// Logger discards everything.
package logx
