/*
Package workflow implements the scan-to-paint phase machine.

One generic Machine is parameterized by a per-family Table. The table says which
actions are legal in each phase, which guards apply, which engine commands an
accepted action issues, and how engine events move the phase.

Actions and engine events share one FIFO queue. The goroutine that finds the machine
idle drains the queue; concurrent callers enqueue and wait for their item. Events the
engine emits synchronously from inside a command are queued behind the current item,
so no two transitions ever run at the same time.
*/
package workflow
