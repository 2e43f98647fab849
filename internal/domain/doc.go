// Package domain defines the core scheduling entities of the review
// scheduler: review items, review sessions, grades and their validation
// rules. It contains no persistence or transport concerns.
package domain
