// Package liveness polls a [Prober] on a fixed schedule and keeps a tri-state
// health [Signal].
//
// Notifications are edge-triggered: [Hooks.OnUnhealthy] fires on the first failed
// probe after a non-unhealthy state and [Hooks.OnRecovered] on the first success
// after an unhealthy one. Repeated identical outcomes are silent.
//
// Scheduling uses robfig/cron with panic recovery and overlap suppression. Stop
// cancels the schedule and the probe context; results that arrive after Stop are
// discarded.
package liveness
