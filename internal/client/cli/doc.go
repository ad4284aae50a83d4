// Package cli implements the non-interactive filevault command. Each
// command maps onto one or two REST calls; object bytes travel directly
// between the local disk and the presigned URLs the server hands out.
package cli
