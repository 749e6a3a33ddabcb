/*
Package e2e holds the end-to-end tests of the asset launcher against a real
docker compose installation.

The suite is skipped unless ASSET_TEST_E2E=1:

	ASSET_TEST_E2E=1 go test ./test/e2e/...

# Package Structure

	test/e2e/
	├── e2e_suite_test.go  Entry point: logger, environment, InfraManager setup
	├── lifecycle_test.go  Ginkgo specs (launch, inspection, failed bootstrap)
	├── doc.go             This file
	├── assets/            Compose files of the "base" and "broken" assets
	└── infra/
	    ├── infra.go       InfraManager interface
	    ├── compose.go     ComposeInfraManager (launcher-managed)
	    ├── external.go    ExternalInfraManager (no-op, managed out of band)
	    └── auth.go        In-process auth mock shared by both managers

# InfraManager

	type InfraManager interface {
	    StartAuth(addr) / StopAuth(ctx) / AuthURL()
	    Launch(ctx)     / Stop(ctx)
	    Helper()
	}

Two implementations:
  - ComposeInfraManager: the launcher runs the asset (default).
  - ExternalInfraManager: no-op lifecycle, selected with ASSET_TEST_DOCKER=ignore,
    for containers started beforehand with "asset-launcher up".

# Assets

	assets/docker-compose.yml                  web (python http.server :8080) and sync
	assets/docker-compose.base.override.yml    working asset
	assets/docker-compose.broken.override.yml  sync exits 3

ASSET_TEST_KEEP_CONTAINERS=1 leaves the containers in place after the suite, for
debugging.
*/
package e2e
