// Package notifications sends sync lifecycle notifications through ntfy.
package notifications
