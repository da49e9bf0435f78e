// Package types defines the Backend and Store interfaces, the Document
// record exchanged with stores, configuration, revision tokens and the
// standard errors for the settee document mapper.
package types
