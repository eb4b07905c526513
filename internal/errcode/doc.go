// Package errcode defines the stable error-code taxonomy shared by the lease manager, pipeline, queue, and collaborator adapters.
package errcode
