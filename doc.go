/*
Package trolley is the controller of a museum trolley-driving simulator.

An operator works the deadman switch, the controller handle (run 0 to 3), the
reverser and the brake valve. The simulator turns those inputs into the
speed and position of the car and keeps a video of the real line playing in
step with it. Safety rules are enforced per operating mode; every violation
stops the car and is reported, never silently dropped.

# Architecture

Commands are captured as data by an input surface and applied at tick
boundaries by a single state machine, so ticks and commands never
interleave. Around the core sit driven ports for the video player and the
append-only event log.

  - internal/runtime: the state machine (Idle, Running, Coasting, Faulted, Reset).
  - pkg/policy: the per-mode interlock rules.
  - pkg/video: translation of speed and position into player commands.
  - pkg/runner: the tick loop tying everything together.

# Usage

	cfg := trolley.DefaultConfig()
	cfg.Mode = "start_stop"

	sim, err := trolley.New(cfg, trolley.WithEventSink(sink))
	if err != nil {
		log.Fatal(err)
	}

	panel := sim.Panel()
	panel.SetDeadman(true)
	panel.SetReverser(domain.ReverserForward)
	panel.SetBrake(domain.BrakeReleased)
	panel.PressRun(1)

	res := sim.Advance(ctx)
	fmt.Println(res.Status.State) // running
*/
package trolley
