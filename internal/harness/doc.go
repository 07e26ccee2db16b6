// Package harness runs the redemption pipeline offline against scripted
// collaborators.
//
// A scenario describes the account's ownership snapshot, the ledger left by
// earlier runs, the candidate entries the issuer returned, and how the issuer
// and the store answer. The harness wires a real ledger and journal in a
// scratch directory, drives engine.Run with fake sleep and fixed run ids, and
// checks the expect block.
//
// # Scenario Format
//
//	name: great_game_deluxe
//	description: "Edition suffix still matches the owned base game"
//	run_id: scenario-run
//	selection:
//	  reveal: false
//	catalog:
//	  owned: ["10"]
//	  named:
//	    - id: "42"
//	      name: Great Game
//	ledger:
//	  - batch: "7"
//	    name: Old Game
//	    class: already_owned
//	candidates:
//	  - batch: "1"
//	    name: "Great Game: Deluxe Edition"
//	    code: AAAAA-BBBBB-CCCCC
//	store:
//	  scripts:
//	    AAAAA-BBBBB-CCCCC:
//	      - detail: 53
//	      - success: true
//	        items: [Great Game]
//	expect:
//	  store_calls: 0
//	  outcomes:
//	    - batch: "1"
//	      class: redeemed
//	      cause: store
//
// # Determinism
//
// Sleeps are recorded, never taken. The run id comes from the scenario and
// journal timestamps are pinned, so RenderReport output is byte-stable and
// can be compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/rate_limit.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
