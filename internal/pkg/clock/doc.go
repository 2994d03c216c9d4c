// Package clock abstracts the current time so dated output (file names,
// archive keys, Date headers) can be pinned in tests and previews.
package clock
