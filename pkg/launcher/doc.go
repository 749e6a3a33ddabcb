// Package launcher runs the containers of an integration test asset around a test run.
//
// An asset is a pair of compose files under an assets root. The launcher names the
// compose project after the service under test and the asset, so that several assets
// of the same service never share containers:
//
//	<root>/docker-compose.yml
//	<root>/docker-compose.<asset>.override.yml
//	[ASSET_TEST_OVERRIDE_EXTRA]
//
//	project name: <service>_<asset>
//
// # Lifecycle
//
//	              New()
//	                │
//	     docker=ignore?──yes──▶ UNMANAGED (Launch and Stop are no-ops)
//	                │no
//	                ▼
//	              DOWN ◀────────────────────────────────┐
//	                │ Launch()                          │
//	                ▼                                   │
//	            STARTING                                │
//	   down --timeout 0 --volumes                       │
//	   pull --ignore-pull-failures (unless no_pull)     │
//	   run --rm <bootstrap>                             │
//	         │                  │                       │
//	      exit 0            exit != 0                   │
//	         │                  │                       │
//	         ▼                  ▼                       │
//	        UP ──Stop()──▶ TEARING_DOWN ────────────────┘
//	                        kill (stop when coverage is on)
//	                        dump logs (when logs_enabled)
//	                        copy coverage (when coverage)
//	                        down (unless keep_containers)
//
// A failed bootstrap always kills the containers, whatever the coverage setting, and
// Launch returns the LaunchFailedError carrying the bootstrap output. Diagnostics
// failures are logged and never replace the error of the operation.
//
// # Per-service operations
//
// Every operation on a running asset resolves the container of a service again with
// "ps -aq <service>", so restarts and relaunches are always observed. Operations
// target the service under test unless the Service option names another one.
//
//	+---------------------+-----------------------------------------------+
//	| Operation           | Engine call                                   |
//	+---------------------+-----------------------------------------------+
//	| ServicePort         | inspect, then pick the IPv4 host binding      |
//	| ServiceStatus       | inspect                                       |
//	| RestartService      | [kill --signal with Signal()], then restart   |
//	| Start/StopService   | start, stop --time                            |
//	| Pause/UnpauseService| pause, unpause                                |
//	| Exec, ExecOrFail    | exec [--privileged]                           |
//	| CopyTo, CopyFrom    | cp                                            |
//	| CopyAcross          | cp out, then cp in through a temp directory   |
//	| ServiceLogs         | logs [--since]                                |
//	| DatabaseLogs        | logs of "postgres", continuation lines folded |
//	| MarkLogsStart/End   | privileged exec writing to /proc/1/fd/1       |
//	+---------------------+-----------------------------------------------+
//
// # Log directory
//
// Teardown log dumps are written to a directory created once per process, named
// asset-integration-<random> under the temp dir unless ASSET_TEST_LOGS_DIR is set.
// Every dump is a new file prefixed with the project name.
//
// # Usage
//
//	h, err := launcher.New(launcher.Asset{Service: "auth", Name: "base", Root: "assets"})
//	if err != nil {
//		return err
//	}
//	return h.Use(ctx, func(h *launcher.Helper) error {
//		port, err := h.ServicePort(ctx, 9497)
//		...
//	})
package launcher
