// Package calendar exports due-dated workspace items as an iCalendar file
// that either member can subscribe to from their phone.
package calendar
