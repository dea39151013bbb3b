/*
Package runner implements the tick loop of a simulator session.

It is the bridge between the state machine and the outside world: each tick
it steps the simulator, hands the resulting frame to the video emitter and
reports the result to an observer (usually the console display). Tick
production, playback and display run on their own goroutines so that a slow
player never delays the physics.

# Usage

	r := runner.NewRunner(sim,
		runner.WithTicker(clock.NewTicker(ctx, cfg.TickInterval, nil)),
		runner.WithEmitter(emitter),
		runner.WithObserver(func(res runtime.Result) { con.Show(res.Status) }),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
