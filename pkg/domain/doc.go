/*
Package domain contains the core vocabulary of the scan-to-paint workflow.

It defines the workflow families and their phases, the named user actions, the
events an AR engine reports back, the commands the orchestrator issues, and the
read-only Snapshot a user interface renders from. The package is kept free of I/O
and concurrency so that every other package can share it.

# Key Entities

  - Family: a workflow variant (Floorplan, RoomPlan, Lidar, Legacy, Shader).
  - Phase: the current stage of a family's workflow.
  - Action: a discrete user request, validated against the current phase.
  - Event: an asynchronous notification from the engine.
  - Command: a fire-and-forget instruction sent to the engine.
  - Snapshot: everything a view needs to render the current session.
*/
package domain
