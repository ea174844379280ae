/*
Package ports defines the driven ports (interfaces) of the ratmaze engine.

These interfaces decouple the facade from infrastructure, so the single-active-run
guarantee can be enforced in-process or across replicas sharing a Redis instance.

# Key Interfaces

  - RunLocker: Grants exclusive ownership of a maze for the duration of one run.
*/
package ports
