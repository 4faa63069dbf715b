/*
Package remodel orchestrates scan-to-paint augmented reality workflows.

It sits between a user interface and an external AR engine. The engine scans rooms,
reconstructs surfaces and paints them; remodel decides which step the user is on,
which actions are legal, which engine commands to send, and how engine events move
the workflow forward.

# Concept

A Session owns everything one user interface needs: the paint selection, the tab
arbiter that switches between workflow families, the debug notices, and the phase
machine of the active family. There is no global state; pass the Session to
whatever renders it.

Every family (Floorplan, RoomPlan, Lidar, Legacy, Shader) runs on the same generic
phase machine, parameterized by a transition table. Actions and engine events are
applied one at a time from a bounded FIFO queue, so an engine callback can never
race a user action.

# Usage

	provider := simulator.NewProvider(simulator.WithAutoRespond(true))

	s, err := remodel.New(remodel.WithEngineProvider(provider))
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Start(ctx, domain.FamilyFloorplan); err != nil {
		log.Fatal(err)
	}

	if _, err := s.Do(ctx, domain.NewAction(domain.ActionStartScan)); err != nil {
		if ge, ok := domain.AsGuardError(err); ok {
			fmt.Println("not now:", ge.Reason)
		}
	}
	fmt.Println(s.Snapshot().Phase)

# Failure handling

Rejected actions return a *domain.GuardError and never change the state. Engine
failures (roomPlanFailed, worldTrackingFailure) reset the session to its family's
initial phase. Switching to a family the device cannot run returns an Unsupported
decision and a persistent notice without touching the tab lock.
*/
package remodel
