// Package queue drives the processing pipeline over a set of issue groups with bounded concurrency and retry.
package queue
