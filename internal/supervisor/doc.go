// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

/*
Package supervisor runs Fitline's long-lived services under a suture v4
supervisor tree.

	RootSupervisor ("fitline")
	├── IndexSupervisor ("index-layer")
	│   └── IndexService (load or build, periodic snapshots)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The layers restart independently: a failing snapshot loop never takes the
HTTP server down with it. Supervisor events are logged through sutureslog
into the zerolog-backed slog handler from internal/logging.

Services live in the services subpackage and implement suture.Service:
Serve(ctx) blocks until ctx is cancelled and returns ctx.Err() on a clean
stop, or an error to request a restart.
*/
package supervisor
