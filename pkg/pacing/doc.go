/*
Package pacing turns the instantaneous event stream of a search into a time-paced
stream suitable for animation.

A Scheduler pulls events from a Source one at a time, hands each one to a Sink and then
pauses: a full step delay after entering a safe cell, half of it after backtracking out
of one, nothing for probes. Cancellation is cooperative: the context is checked before
every delivery and after every pause, and a cancelled run never delivers its terminal
event.
*/
package pacing
